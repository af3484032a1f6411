package store

import (
	"errors"

	"github.com/casehq/triage/internal/model"
)

// ErrNotFound is returned when a ticket identifier resolves to nothing.
var ErrNotFound = errors.New("ticket not found")

// ListFilter narrows and pages List results. Empty fields match
// everything; Category and Priority match against a ticket's stored
// classification, so unclassified tickets never match them.
type ListFilter struct {
	Status     string
	Category   string
	Priority   string
	CustomerID string
	Offset     int
	Limit      int // 0 means no limit
}

// Store is the persistence boundary for tickets. Create assigns the ID
// and timestamps; Update applies a typed patch and returns the updated
// ticket. Listing is stable in insertion order.
type Store interface {
	Create(t model.Ticket) (model.Ticket, error)
	Get(id string) (model.Ticket, error)
	Update(id string, patch model.TicketPatch) (model.Ticket, error)
	Delete(id string) error
	List(filter ListFilter) ([]model.Ticket, error)
	Close() error
}

func matchesFilter(t model.Ticket, f ListFilter) bool {
	if f.Status != "" && string(t.Status) != f.Status {
		return false
	}
	if f.CustomerID != "" && t.CustomerID != f.CustomerID {
		return false
	}
	if f.Category != "" {
		if t.Classification == nil || string(t.Classification.Category) != f.Category {
			return false
		}
	}
	if f.Priority != "" {
		if t.Classification == nil || string(t.Classification.Priority) != f.Priority {
			return false
		}
	}
	return true
}

// page applies offset/limit to an already-filtered slice.
func page(tickets []model.Ticket, f ListFilter) []model.Ticket {
	if f.Offset > 0 {
		if f.Offset >= len(tickets) {
			return []model.Ticket{}
		}
		tickets = tickets[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(tickets) {
		tickets = tickets[:f.Limit]
	}
	return tickets
}
