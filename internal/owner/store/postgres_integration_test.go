//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"famtree/internal/owner/models"
	"famtree/internal/owner/store"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	"famtree/pkg/platform/sentinel"
	txcontext "famtree/pkg/platform/tx"
	"famtree/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "change_log", "person_collections", "owners")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestOwnerRoundTrip() {
	ctx := context.Background()
	alice := id.UserID(id.NewPersonID())
	bob := id.UserID(id.NewPersonID())
	now := time.Now().UTC().Truncate(time.Microsecond)

	tree, err := models.NewTree(id.NewTreeID(), "Kowalski", alice, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateOwner(ctx, tree))
	s.ErrorIs(s.store.CreateOwner(ctx, tree), sentinel.ErrConflict)

	s.Require().NoError(tree.PutMember(bob, models.RoleEditor, now))
	s.Require().NoError(s.store.UpdateOwner(ctx, tree))

	got, err := s.store.GetOwner(ctx, tree.Ref)
	s.Require().NoError(err)
	s.Equal(tree.Name, got.Name)
	s.Equal(alice, got.OwnerUserID)
	role, ok := got.RoleOf(bob)
	s.True(ok)
	s.Equal(models.RoleEditor, role)

	trees, err := s.store.ListTreesForUser(ctx, bob)
	s.Require().NoError(err)
	s.Require().Len(trees, 1)
	s.Equal(tree.Ref, trees[0].Ref)

	_, err = s.store.GetOwner(ctx, id.TreeOwner(id.NewTreeID()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCollectionDocument() {
	ctx := context.Background()
	userID := id.UserID(id.NewPersonID())
	owner := models.NewUserOwner(userID, time.Now())

	_, err := s.store.LoadCollection(ctx, owner.Ref)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.SaveCollection(ctx, personmodels.NewCollection(owner.Ref)), sentinel.ErrNotFound)

	s.Require().NoError(s.store.CreateOwner(ctx, owner))
	c, err := s.store.LoadCollection(ctx, owner.Ref)
	s.Require().NoError(err)
	s.Zero(c.Len())

	jan, err := personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderMale, FirstName: "Jan"}, time.Now())
	s.Require().NoError(err)
	eva, err := personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderFemale, FirstName: "Eva"}, time.Now())
	s.Require().NoError(err)
	c.Put(jan)
	c.Put(eva)
	personmodels.Link(jan, eva, personmodels.RelationSpouses, "1970-06-20")
	s.Require().NoError(s.store.SaveCollection(ctx, c))

	loaded, err := s.store.LoadCollection(ctx, owner.Ref)
	s.Require().NoError(err)
	s.Equal(2, loaded.Len())
	s.Empty(personmodels.CheckInvariants(loaded))
	link, ok := loaded.Lookup(eva.ID).Spouse(jan.ID)
	s.True(ok)
	s.Equal("1970-06-20", link.WeddingDate)
}

func (s *PostgresStoreSuite) TestSaveInsideRolledBackTx() {
	ctx := context.Background()
	owner := models.NewUserOwner(id.UserID(id.NewPersonID()), time.Now())
	s.Require().NoError(s.store.CreateOwner(ctx, owner))

	runner := txcontext.NewSQLRunner(s.postgres.DB)
	errRollback := sentinel.ErrUnavailable
	err := runner.RunInTx(ctx, func(ctx context.Context) error {
		c := personmodels.NewCollection(owner.Ref)
		p, err := personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderMale}, time.Now())
		s.Require().NoError(err)
		c.Put(p)
		s.Require().NoError(s.store.SaveCollection(ctx, c))
		return errRollback
	})
	s.ErrorIs(err, errRollback)

	loaded, err := s.store.LoadCollection(ctx, owner.Ref)
	s.Require().NoError(err)
	s.Zero(loaded.Len())
}

func (s *PostgresStoreSuite) TestConcurrentOwnerCreation() {
	ctx := context.Background()
	owner := models.NewUserOwner(id.UserID(id.NewPersonID()), time.Now())

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.store.CreateOwner(ctx, owner); {
			case err == nil:
				created.Add(1)
			case err == sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
	s.Equal(int32(19), conflicts.Load())
}
