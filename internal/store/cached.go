package store

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/casehq/triage/internal/model"
)

const defaultCacheTTL = 5 * time.Minute

// CachedStore is a read-through wrapper: Get populates the cache,
// Update and Delete invalidate it. List always hits the inner store so
// filters see fresh data.
type CachedStore struct {
	inner Store
	cache *gocache.Cache
}

// NewCachedStore wraps inner with a TTL cache on Get. A non-positive
// ttl falls back to the default.
func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedStore) Create(t model.Ticket) (model.Ticket, error) {
	created, err := s.inner.Create(t)
	if err != nil {
		return model.Ticket{}, err
	}
	// Cache entries hold their own copies; callers keep mutating theirs.
	s.cache.SetDefault(created.ID, cloneTicket(created))
	return created, nil
}

func (s *CachedStore) Get(id string) (model.Ticket, error) {
	if cached, found := s.cache.Get(id); found {
		return cloneTicket(cached.(model.Ticket)), nil
	}
	t, err := s.inner.Get(id)
	if err != nil {
		return model.Ticket{}, err
	}
	s.cache.SetDefault(id, cloneTicket(t))
	return t, nil
}

func (s *CachedStore) Update(id string, patch model.TicketPatch) (model.Ticket, error) {
	updated, err := s.inner.Update(id, patch)
	if err != nil {
		return model.Ticket{}, err
	}
	s.cache.Delete(id)
	return updated, nil
}

func (s *CachedStore) Delete(id string) error {
	if err := s.inner.Delete(id); err != nil {
		return err
	}
	s.cache.Delete(id)
	return nil
}

func (s *CachedStore) List(filter ListFilter) ([]model.Ticket, error) {
	return s.inner.List(filter)
}

func (s *CachedStore) Close() error {
	return s.inner.Close()
}
