package model

import (
	"fmt"
	"time"
)

// Category is one of the closed set of ticket classifications.
type Category string

const (
	CategoryAccountAccess  Category = "account_access"
	CategoryTechnicalIssue Category = "technical_issue"
	CategoryBilling        Category = "billing_question"
	CategoryFeatureRequest Category = "feature_request"
	CategoryBugReport      Category = "bug_report"
	CategoryOther          Category = "other" // guaranteed fallback
)

// Categories lists every valid category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryAccountAccess,
		CategoryTechnicalIssue,
		CategoryBilling,
		CategoryFeatureRequest,
		CategoryBugReport,
		CategoryOther,
	}
}

// ParseCategory converts a string to a Category
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Priority is one of the closed, severity-ordered set of urgency levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium" // guaranteed fallback, carries no triggers
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every valid priority from lowest to highest severity.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// ParsePriority converts a string to a Priority
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Status is a ticket's lifecycle state.
type Status string

const (
	StatusOpen       Status = "open" // default for newly imported tickets
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every valid ticket status.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
}

// ParseStatus converts a string to a Status
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Reasoning carries one human-readable explanation per classification axis.
type Reasoning struct {
	Category string `json:"category_reasoning"`
	Priority string `json:"priority_reasoning"`
}

// ClassificationResult is the output of one classification call. Created
// fresh on every call, immutable once returned; owned by whichever ticket
// record or response embeds it.
type ClassificationResult struct {
	Category           Category  `json:"category"`
	Priority           Priority  `json:"priority"`
	CategoryConfidence float64   `json:"category_confidence"` // [0,1], 2 decimals
	PriorityConfidence float64   `json:"priority_confidence"` // [0,1], 2 decimals
	OverallConfidence  float64   `json:"overall_confidence"`  // mean of the two
	Reasoning          Reasoning `json:"reasoning"`
	KeywordsFound      []string  `json:"keywords_found"` // deduplicated, first-seen order
}

// Classification is a stored classification attachment on a ticket. Absent
// means the ticket was never classified; ManualOverride records whether a
// human, not the engine, is the authority for the current values.
type Classification struct {
	ClassificationResult
	ClassifiedAt   time.Time `json:"classified_at"`
	ManualOverride bool      `json:"manual_override"`
}

// Ticket is a stored support request.
type Ticket struct {
	ID             string            `json:"id"`
	CustomerID     string            `json:"customer_id"`
	CustomerEmail  string            `json:"customer_email"`
	CustomerName   string            `json:"customer_name"`
	Subject        string            `json:"subject"`
	Description    string            `json:"description"`
	Status         Status            `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Classification *Classification   `json:"classification,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TicketPatch is an explicit partial update. Nil fields are left untouched.
// ID and CreatedAt are not patchable.
type TicketPatch struct {
	CustomerID     *string
	CustomerEmail  *string
	CustomerName   *string
	Subject        *string
	Description    *string
	Status         *Status
	Metadata       map[string]string
	Classification *Classification

	// ForceClassification permits replacing a classification whose
	// ManualOverride flag is set. Without it, a manual override wins
	// over any engine-produced patch.
	ForceClassification bool
}

// Apply merges the patch into a copy of the ticket and returns it. ID and
// CreatedAt are never modified; UpdatedAt is stamped with now. A patch
// carrying a Classification is dropped when the existing classification is
// a manual override and ForceClassification is unset.
func (p TicketPatch) Apply(t Ticket, now time.Time) Ticket {
	if p.CustomerID != nil {
		t.CustomerID = *p.CustomerID
	}
	if p.CustomerEmail != nil {
		t.CustomerEmail = *p.CustomerEmail
	}
	if p.CustomerName != nil {
		t.CustomerName = *p.CustomerName
	}
	if p.Subject != nil {
		t.Subject = *p.Subject
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Metadata != nil {
		t.Metadata = p.Metadata
	}
	if p.Classification != nil {
		overridden := t.Classification != nil && t.Classification.ManualOverride
		if !overridden || p.ForceClassification {
			t.Classification = p.Classification
		}
	}
	t.UpdatedAt = now
	return t
}
