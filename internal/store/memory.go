package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casehq/triage/internal/model"
)

// MemoryStore keeps tickets in a mutex-guarded map and preserves
// insertion order for listing.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]model.Ticket
	order   []string
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets: make(map[string]model.Ticket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(t model.Ticket) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := s.tickets[t.ID]; exists {
		return model.Ticket{}, fmt.Errorf("ticket %s already exists", t.ID)
	}

	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	s.tickets[t.ID] = cloneTicket(t)
	s.order = append(s.order, t.ID)
	return t, nil
}

func (s *MemoryStore) Get(id string) (model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneTicket(t), nil
}

func (s *MemoryStore) Update(id string, patch model.TicketPatch) (model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := patch.Apply(t, s.now())
	s.tickets[id] = cloneTicket(updated)
	return updated, nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.tickets, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(filter ListFilter) ([]model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.Ticket, 0, len(s.order))
	for _, id := range s.order {
		t := s.tickets[id]
		if matchesFilter(t, filter) {
			matched = append(matched, cloneTicket(t))
		}
	}
	return page(matched, filter), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// cloneTicket copies the ticket's reference fields so callers and the
// store never share mutable state.
func cloneTicket(t model.Ticket) model.Ticket {
	if t.Metadata != nil {
		meta := make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			meta[k] = v
		}
		t.Metadata = meta
	}
	if t.Classification != nil {
		c := *t.Classification
		if c.KeywordsFound != nil {
			c.KeywordsFound = append([]string(nil), c.KeywordsFound...)
		}
		t.Classification = &c
	}
	return t
}
