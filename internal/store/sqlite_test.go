package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/casehq/triage/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "triage.db"))
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	s := newTestSQLiteStore(t)

	ticket := sampleTicket("C-1", "Printer on fire")
	ticket.Metadata = map[string]string{"source": "email", "region": "eu"}

	created, err := s.Create(ticket)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected an assigned ID")
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Subject != "Printer on fire" {
		t.Errorf("Expected subject preserved, got %q", got.Subject)
	}
	if got.Status != model.StatusOpen {
		t.Errorf("Expected open status, got %q", got.Status)
	}
	if got.Metadata["source"] != "email" || got.Metadata["region"] != "eu" {
		t.Errorf("Expected metadata round-trip, got %v", got.Metadata)
	}
	if got.Classification != nil {
		t.Error("Expected no classification on a fresh ticket")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be stored")
	}
}

func TestSQLiteStore_ClassificationRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	ticket := sampleTicket("C-1", "Cannot log in")
	classification := &model.Classification{
		ClassifiedAt:   time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		ManualOverride: false,
	}
	classification.Category = model.CategoryAccountAccess
	classification.Priority = model.PriorityUrgent
	classification.CategoryConfidence = 0.92
	classification.PriorityConfidence = 0.67
	classification.OverallConfidence = 0.8
	classification.Reasoning = model.Reasoning{Category: "matched 3 keywords", Priority: "urgent trigger"}
	classification.KeywordsFound = []string{"login", "locked out"}
	ticket.Classification = classification

	created, err := s.Create(ticket)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	c := got.Classification
	if c == nil {
		t.Fatal("Expected classification to round-trip")
	}
	if c.Category != model.CategoryAccountAccess || c.Priority != model.PriorityUrgent {
		t.Errorf("Expected category/priority preserved, got %q/%q", c.Category, c.Priority)
	}
	if c.CategoryConfidence != 0.92 || c.PriorityConfidence != 0.67 || c.OverallConfidence != 0.8 {
		t.Errorf("Expected confidences preserved, got %v/%v/%v",
			c.CategoryConfidence, c.PriorityConfidence, c.OverallConfidence)
	}
	if c.Reasoning.Category != "matched 3 keywords" {
		t.Errorf("Expected reasoning preserved, got %q", c.Reasoning.Category)
	}
	if len(c.KeywordsFound) != 2 || c.KeywordsFound[1] != "locked out" {
		t.Errorf("Expected keywords preserved in order, got %v", c.KeywordsFound)
	}
	if c.ManualOverride {
		t.Error("Expected manual_override false")
	}
	if !c.ClassifiedAt.Equal(classification.ClassifiedAt) {
		t.Errorf("Expected classified_at %v, got %v", classification.ClassifiedAt, c.ClassifiedAt)
	}
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_Update_AppliesPatch(t *testing.T) {
	s := newTestSQLiteStore(t)
	created, _ := s.Create(sampleTicket("C-1", "Old"))

	status := model.StatusClosed
	classification := &model.Classification{ClassifiedAt: time.Now().UTC()}
	classification.Category = model.CategoryTechnicalIssue
	classification.Priority = model.PriorityMedium

	updated, err := s.Update(created.ID, model.TicketPatch{Status: &status, Classification: classification})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Status != model.StatusClosed {
		t.Errorf("Expected closed, got %q", updated.Status)
	}

	got, _ := s.Get(created.ID)
	if got.Status != model.StatusClosed {
		t.Errorf("Expected persisted status, got %q", got.Status)
	}
	if got.Classification == nil || got.Classification.Category != model.CategoryTechnicalIssue {
		t.Errorf("Expected persisted classification, got %v", got.Classification)
	}
}

func TestSQLiteStore_Update_ManualOverrideGuard(t *testing.T) {
	s := newTestSQLiteStore(t)

	ticket := sampleTicket("C-1", "Hello")
	manual := &model.Classification{ClassifiedAt: time.Now().UTC(), ManualOverride: true}
	manual.Category = model.CategoryBilling
	ticket.Classification = manual
	created, _ := s.Create(ticket)

	engine := &model.Classification{ClassifiedAt: time.Now().UTC()}
	engine.Category = model.CategoryBugReport

	updated, err := s.Update(created.ID, model.TicketPatch{Classification: engine})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Classification.Category != model.CategoryBilling || !updated.Classification.ManualOverride {
		t.Error("Expected manual override to survive an engine patch")
	}
}

func TestSQLiteStore_Update_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.Update("missing", model.TicketPatch{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestSQLiteStore(t)
	created, _ := s.Create(sampleTicket("C-1", "Hello"))

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Get(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ticket gone, got %v", err)
	}
	if err := s.Delete(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStore_List_FiltersAndOrder(t *testing.T) {
	s := newTestSQLiteStore(t)

	first := sampleTicket("C-1", "first")
	second := sampleTicket("C-2", "second")
	second.Status = model.StatusResolved
	third := sampleTicket("C-1", "third")
	third.Classification = &model.Classification{ClassifiedAt: time.Now().UTC()}
	third.Classification.Category = model.CategoryFeatureRequest
	third.Classification.Priority = model.PriorityLow

	for _, ticket := range []model.Ticket{first, second, third} {
		if _, err := s.Create(ticket); err != nil {
			t.Fatalf("Expected create to succeed, got %v", err)
		}
	}

	tickets, err := s.List(ListFilter{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tickets) != 3 {
		t.Fatalf("Expected 3 tickets, got %d", len(tickets))
	}
	if tickets[0].Subject != "first" || tickets[2].Subject != "third" {
		t.Errorf("Expected insertion order, got [%s %s %s]",
			tickets[0].Subject, tickets[1].Subject, tickets[2].Subject)
	}

	tickets, _ = s.List(ListFilter{Status: "resolved"})
	if len(tickets) != 1 || tickets[0].Subject != "second" {
		t.Errorf("Expected status filter to match one, got %v", len(tickets))
	}

	tickets, _ = s.List(ListFilter{Category: "feature_request"})
	if len(tickets) != 1 || tickets[0].Subject != "third" {
		t.Errorf("Expected category filter to match one, got %v", len(tickets))
	}

	tickets, _ = s.List(ListFilter{CustomerID: "C-1", Status: "open"})
	if len(tickets) != 2 {
		t.Errorf("Expected combined filters to match two, got %d", len(tickets))
	}
}

func TestSQLiteStore_List_Pagination(t *testing.T) {
	s := newTestSQLiteStore(t)
	for _, subject := range []string{"a", "b", "c", "d"} {
		if _, err := s.Create(sampleTicket("C-1", subject)); err != nil {
			t.Fatalf("Expected create to succeed, got %v", err)
		}
	}

	tickets, err := s.List(ListFilter{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tickets) != 2 || tickets[0].Subject != "b" || tickets[1].Subject != "c" {
		t.Errorf("Expected page [b c], got %d results", len(tickets))
	}

	tickets, _ = s.List(ListFilter{Offset: 2})
	if len(tickets) != 2 || tickets[0].Subject != "c" {
		t.Errorf("Expected offset without limit to return the tail, got %d", len(tickets))
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triage.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Expected store to open, got %v", err)
	}
	created, err := s.Create(sampleTicket("C-1", "Durable"))
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Expected clean close, got %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Expected reopen to succeed, got %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(created.ID)
	if err != nil {
		t.Fatalf("Expected ticket to survive reopen, got %v", err)
	}
	if got.Subject != "Durable" {
		t.Errorf("Expected subject preserved, got %q", got.Subject)
	}
}
