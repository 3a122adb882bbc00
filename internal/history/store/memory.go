package store

import (
	"context"
	"sync"

	"famtree/internal/history/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
)

// InMemory keeps each owner's entries in append order.
type InMemory struct {
	mu      sync.RWMutex
	byOwner map[id.OwnerRef][]models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{byOwner: make(map[id.OwnerRef][]models.Entry)}
}

func (s *InMemory) Append(_ context.Context, e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byOwner[e.Owner] {
		if existing.ID == e.ID {
			return sentinel.ErrConflict
		}
	}
	s.byOwner[e.Owner] = append(s.byOwner[e.Owner], e)
	return nil
}

func (s *InMemory) List(_ context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.byOwner[owner]
	out := make([]models.Entry, 0, min(len(entries), max(filter.Limit, 0)))
	for i := len(entries) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		if filter.Matches(entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

func (s *InMemory) Get(_ context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.byOwner[owner] {
		if e.ID == logID {
			found := e
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
