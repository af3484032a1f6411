package model

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil {
			t.Errorf("Expected %q to parse, got %v", c, err)
		}
		if got != c {
			t.Errorf("Expected %q, got %q", c, got)
		}
	}

	if _, err := ParseCategory("spam"); err == nil {
		t.Error("Expected error for unknown category, got nil")
	}
	if _, err := ParseCategory("Billing_Question"); err == nil {
		t.Error("Expected category parsing to be case sensitive")
	}
}

func TestParsePriority(t *testing.T) {
	for _, p := range Priorities() {
		if _, err := ParsePriority(string(p)); err != nil {
			t.Errorf("Expected %q to parse, got %v", p, err)
		}
	}

	if _, err := ParsePriority("sev1"); err == nil {
		t.Error("Expected error for unknown priority, got nil")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		if _, err := ParseStatus(string(s)); err != nil {
			t.Errorf("Expected %q to parse, got %v", s, err)
		}
	}

	if _, err := ParseStatus("pending"); err == nil {
		t.Error("Expected error for unknown status, got nil")
	}
}

func TestPriorities_SeverityOrder(t *testing.T) {
	want := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	got := Priorities()
	if len(got) != len(want) {
		t.Fatalf("Expected %d priorities, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected position %d to be %s, got %s", i, want[i], got[i])
		}
	}
}

func baseTicket() Ticket {
	return Ticket{
		ID:            "t-1",
		CustomerID:    "C-1",
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana Ortiz",
		Subject:       "Login broken",
		Description:   "Cannot sign in",
		Status:        StatusOpen,
		CreatedAt:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTicketPatch_Apply_Fields(t *testing.T) {
	ticket := baseTicket()
	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

	subject := "Login still broken"
	status := StatusInProgress
	patched := TicketPatch{
		Subject:  &subject,
		Status:   &status,
		Metadata: map[string]string{"source": "email"},
	}.Apply(ticket, now)

	if patched.Subject != "Login still broken" {
		t.Errorf("Expected subject patched, got %q", patched.Subject)
	}
	if patched.Status != StatusInProgress {
		t.Errorf("Expected status patched, got %s", patched.Status)
	}
	if patched.Metadata["source"] != "email" {
		t.Errorf("Expected metadata replaced, got %v", patched.Metadata)
	}
	if patched.Description != ticket.Description {
		t.Errorf("Expected untouched fields kept, got %q", patched.Description)
	}
	if !patched.UpdatedAt.Equal(now) {
		t.Errorf("Expected updated_at stamped %v, got %v", now, patched.UpdatedAt)
	}
}

func TestTicketPatch_Apply_NeverTouchesIDOrCreatedAt(t *testing.T) {
	ticket := baseTicket()
	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

	id := "hijacked"
	patched := TicketPatch{CustomerID: &id}.Apply(ticket, now)

	if patched.ID != "t-1" {
		t.Errorf("Expected ID untouched, got %q", patched.ID)
	}
	if !patched.CreatedAt.Equal(ticket.CreatedAt) {
		t.Errorf("Expected created_at untouched, got %v", patched.CreatedAt)
	}
}

func TestTicketPatch_Apply_EmptyPatchOnlyStampsUpdatedAt(t *testing.T) {
	ticket := baseTicket()
	now := time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC)

	patched := TicketPatch{}.Apply(ticket, now)

	if patched.Subject != ticket.Subject || patched.Status != ticket.Status {
		t.Error("Expected an empty patch to change nothing")
	}
	if !patched.UpdatedAt.Equal(now) {
		t.Errorf("Expected updated_at stamped, got %v", patched.UpdatedAt)
	}
}

func TestTicketPatch_Apply_ManualOverrideGuard(t *testing.T) {
	ticket := baseTicket()
	ticket.Classification = &Classification{
		ClassificationResult: ClassificationResult{
			Category: CategoryBilling,
			Priority: PriorityLow,
		},
		ClassifiedAt:   time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC),
		ManualOverride: true,
	}
	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

	engineResult := &Classification{
		ClassificationResult: ClassificationResult{
			Category: CategoryAccountAccess,
			Priority: PriorityUrgent,
		},
		ClassifiedAt: now,
	}

	patched := TicketPatch{Classification: engineResult}.Apply(ticket, now)
	if patched.Classification.Category != CategoryBilling {
		t.Errorf("Expected the override to win, got %s", patched.Classification.Category)
	}
	if !patched.Classification.ManualOverride {
		t.Error("Expected the override flag to survive")
	}

	patched = TicketPatch{Classification: engineResult, ForceClassification: true}.Apply(ticket, now)
	if patched.Classification.Category != CategoryAccountAccess {
		t.Errorf("Expected force to replace the override, got %s", patched.Classification.Category)
	}
	if patched.Classification.ManualOverride {
		t.Error("Expected the replacement to clear the override flag")
	}
}

func TestTicketPatch_Apply_ClassificationOverEngineResult(t *testing.T) {
	ticket := baseTicket()
	ticket.Classification = &Classification{
		ClassificationResult: ClassificationResult{
			Category: CategoryBugReport,
			Priority: PriorityMedium,
		},
		ClassifiedAt: time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC),
	}
	now := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

	// Without an override flag an engine result is freely replaced.
	replacement := &Classification{
		ClassificationResult: ClassificationResult{
			Category: CategoryTechnicalIssue,
			Priority: PriorityHigh,
		},
		ClassifiedAt: now,
	}
	patched := TicketPatch{Classification: replacement}.Apply(ticket, now)
	if patched.Classification.Category != CategoryTechnicalIssue {
		t.Errorf("Expected replacement to apply, got %s", patched.Classification.Category)
	}
}
