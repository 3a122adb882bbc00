package store

import (
	"context"
	"slices"
	"sync"

	"famtree/internal/owner/models"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
)

type ownerRecord struct {
	owner      *models.Owner
	collection *personmodels.Collection
}

// InMemory keeps owners and collections in process. Values are cloned on the
// way in and out so callers never share state with the store.
type InMemory struct {
	mu     sync.RWMutex
	owners map[id.OwnerRef]*ownerRecord
}

func NewInMemory() *InMemory {
	return &InMemory{owners: make(map[id.OwnerRef]*ownerRecord)}
}

func (s *InMemory) CreateOwner(_ context.Context, o *models.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[o.Ref]; ok {
		return sentinel.ErrConflict
	}
	s.owners[o.Ref] = &ownerRecord{owner: o.Clone(), collection: personmodels.NewCollection(o.Ref)}
	return nil
}

func (s *InMemory) GetOwner(_ context.Context, ref id.OwnerRef) (*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.owners[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.owner.Clone(), nil
}

func (s *InMemory) UpdateOwner(_ context.Context, o *models.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.owners[o.Ref]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.owner = o.Clone()
	return nil
}

// ListTreesForUser returns shared trees userID belongs to, oldest first.
func (s *InMemory) ListTreesForUser(_ context.Context, userID id.UserID) ([]*models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Owner
	for _, rec := range s.owners {
		if rec.owner.Ref.Kind != id.OwnerKindTree {
			continue
		}
		if _, ok := rec.owner.RoleOf(userID); ok {
			out = append(out, rec.owner.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Owner) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *InMemory) LoadCollection(_ context.Context, ref id.OwnerRef) (*personmodels.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.owners[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.collection.Clone(), nil
}

func (s *InMemory) SaveCollection(_ context.Context, c *personmodels.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.owners[c.Owner]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.collection = c.Clone()
	return nil
}
