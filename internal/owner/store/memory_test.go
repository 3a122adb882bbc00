package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"famtree/internal/owner/models"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemorySuite) newTree(ownerID id.UserID, name string) *models.Owner {
	tree, err := models.NewTree(id.NewTreeID(), name, ownerID, time.Now())
	s.Require().NoError(err)
	return tree
}

func (s *InMemorySuite) TestOwnerLifecycle() {
	userID := id.UserID(id.NewPersonID())
	tree := s.newTree(userID, "Nowak")

	s.Run("creates and reads back", func() {
		s.Require().NoError(s.store.CreateOwner(s.ctx, tree))
		got, err := s.store.GetOwner(s.ctx, tree.Ref)
		s.Require().NoError(err)
		s.Equal("Nowak", got.Name)
	})

	s.Run("rejects duplicate", func() {
		s.ErrorIs(s.store.CreateOwner(s.ctx, tree), sentinel.ErrConflict)
	})

	s.Run("returned owner is a copy", func() {
		got, err := s.store.GetOwner(s.ctx, tree.Ref)
		s.Require().NoError(err)
		got.Members = nil
		again, err := s.store.GetOwner(s.ctx, tree.Ref)
		s.Require().NoError(err)
		s.Len(again.Members, 1)
	})

	s.Run("update unknown owner", func() {
		s.ErrorIs(s.store.UpdateOwner(s.ctx, s.newTree(userID, "ghost")), sentinel.ErrNotFound)
	})
}

func (s *InMemorySuite) TestListTreesForUser() {
	alice := id.UserID(id.NewPersonID())
	bob := id.UserID(id.NewPersonID())

	first := s.newTree(alice, "first")
	second := s.newTree(bob, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(second.PutMember(alice, models.RoleViewer, time.Now()))
	s.Require().NoError(s.store.CreateOwner(s.ctx, first))
	s.Require().NoError(s.store.CreateOwner(s.ctx, second))
	s.Require().NoError(s.store.CreateOwner(s.ctx, models.NewUserOwner(alice, time.Now())))

	trees, err := s.store.ListTreesForUser(s.ctx, alice)
	s.Require().NoError(err)
	s.Require().Len(trees, 2)
	s.Equal("first", trees[0].Name)

	trees, err = s.store.ListTreesForUser(s.ctx, bob)
	s.Require().NoError(err)
	s.Len(trees, 1)
}

func (s *InMemorySuite) TestCollections() {
	userID := id.UserID(id.NewPersonID())
	owner := models.NewUserOwner(userID, time.Now())

	s.Run("unknown owner", func() {
		_, err := s.store.LoadCollection(s.ctx, owner.Ref)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.ErrorIs(s.store.SaveCollection(s.ctx, personmodels.NewCollection(owner.Ref)), sentinel.ErrNotFound)
	})

	s.Require().NoError(s.store.CreateOwner(s.ctx, owner))

	s.Run("new owner starts empty", func() {
		c, err := s.store.LoadCollection(s.ctx, owner.Ref)
		s.Require().NoError(err)
		s.Zero(c.Len())
	})

	s.Run("save then load is isolated from caller", func() {
		c, err := s.store.LoadCollection(s.ctx, owner.Ref)
		s.Require().NoError(err)
		p, err := personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderMale, FirstName: "Jan"}, time.Now())
		s.Require().NoError(err)
		c.Put(p)
		s.Require().NoError(s.store.SaveCollection(s.ctx, c))

		p.FirstName = "mutated after save"
		loaded, err := s.store.LoadCollection(s.ctx, owner.Ref)
		s.Require().NoError(err)
		got, ok := loaded.Get(p.ID)
		s.Require().True(ok)
		s.Equal("Jan", got.FirstName)
	})
}
