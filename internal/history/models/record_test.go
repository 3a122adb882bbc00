package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

type RecordSuite struct {
	suite.Suite
	owner id.OwnerRef
	actor id.UserID
	now   time.Time
	jan   *personmodels.Person
	eva   *personmodels.Person
}

func TestRecordSuite(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}

func (s *RecordSuite) SetupTest() {
	s.actor = id.UserID(id.NewPersonID())
	s.owner = id.UserOwner(s.actor)
	s.now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var err error
	s.jan, err = personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderMale, FirstName: "Jan"}, s.now)
	s.Require().NoError(err)
	s.eva, err = personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderFemale, FirstName: "Eva"}, s.now)
	s.Require().NoError(err)
}

// roundTrip pushes rec through an entry and JSON, as the stores do.
func (s *RecordSuite) roundTrip(rec Record) (Entry, Record) {
	e := NewEntry(id.NewLogID(), s.owner, s.actor, s.now, rec)
	raw, err := json.Marshal(e)
	s.Require().NoError(err)
	var back Entry
	s.Require().NoError(json.Unmarshal(raw, &back))
	got, err := Decode(back)
	s.Require().NoError(err)
	return back, got
}

func (s *RecordSuite) TestCreated() {
	e, rec := s.roundTrip(Created{Person: s.jan})
	s.Equal(ActionCreate, e.Action)
	s.Equal(s.jan.ID, e.EntityID)
	s.Equal(EntityTypePerson, e.EntityType)
	s.Equal(s.actor, e.UserID)
	created, ok := rec.(Created)
	s.Require().True(ok)
	s.Equal("Jan", created.Person.FirstName)
}

func (s *RecordSuite) TestSnapshotIsCopied() {
	e := NewEntry(id.NewLogID(), s.owner, s.actor, s.now, Created{Person: s.jan})
	s.jan.FirstName = "changed later"
	s.Equal("Jan", e.Snapshot.FirstName)
}

func (s *RecordSuite) TestEmptyUpdateDecodes() {
	_, rec := s.roundTrip(Updated{Person: s.jan})
	updated, ok := rec.(Updated)
	s.Require().True(ok)
	s.Empty(updated.Changes)
}

func (s *RecordSuite) TestRestoredKeepsSource() {
	source := id.NewPersonID()
	_, rec := s.roundTrip(Restored{Person: s.jan, RestoredFrom: source})
	restored, ok := rec.(Restored)
	s.Require().True(ok)
	s.Equal(source, restored.RestoredFrom)
}

func (s *RecordSuite) TestDeletedGroupsNeighbourFields() {
	before := s.eva.Clone()
	e, rec := s.roundTrip(Deleted{
		Person: s.jan,
		Neighbours: []Neighbour{{
			PersonID: s.eva.ID,
			Fields:   []personmodels.RelationType{personmodels.RelationSpouses, personmodels.RelationSiblings},
			Before:   before,
		}},
	})
	s.Len(e.RelatedEntities, 2)
	deleted := rec.(Deleted)
	s.Require().Len(deleted.Neighbours, 1)
	s.Equal([]personmodels.RelationType{personmodels.RelationSpouses, personmodels.RelationSiblings}, deleted.Neighbours[0].Fields)
}

func (s *RecordSuite) TestSpouseEdgeKeepsWeddingDate() {
	e, rec := s.roundTrip(RelationRemoved{
		Person:         s.jan,
		RelatedID:      s.eva.ID,
		Relation:       personmodels.RelationSpouses,
		WeddingDate:    "1970-06-20",
		RelatedCleared: true,
		Related:        s.eva,
	})
	s.JSONEq(`{"personId":"`+s.eva.ID.String()+`","weddingDate":"1970-06-20"}`, string(e.Changes[0].OldValue))
	s.JSONEq(`null`, string(e.Changes[0].NewValue))

	removed := rec.(RelationRemoved)
	s.Equal("1970-06-20", removed.WeddingDate)
	s.True(removed.RelatedCleared)
	s.Equal(personmodels.RelationSpouses, removed.Relation)
}

func (s *RecordSuite) TestRelationAddedFields() {
	e, rec := s.roundTrip(RelationAdded{
		Person:    s.jan,
		RelatedID: s.eva.ID,
		Relation:  personmodels.RelationChildren,
		Related:   s.eva,
	})
	s.Equal("children", e.Changes[0].Field)
	s.Equal("parents", e.RelatedEntities[0].Field)
	s.JSONEq("null", string(e.Changes[0].OldValue))
	added := rec.(RelationAdded)
	s.Equal(s.eva.ID, added.RelatedID)
	s.Empty(added.WeddingDate)
	s.True(added.Prior.IsZero())
}

func (s *RecordSuite) TestRelationAddedKeepsPriorEdge() {
	prior := personmodels.EdgeState{Forward: true, Inverse: true, WeddingDate: "1990-01-01"}
	e, rec := s.roundTrip(RelationAdded{
		Person:      s.jan,
		RelatedID:   s.eva.ID,
		Relation:    personmodels.RelationSpouses,
		WeddingDate: "2000-02-02",
		Related:     s.eva,
		Prior:       prior,
	})
	s.JSONEq(`{"forward":true,"inverse":true,"weddingDate":"1990-01-01"}`, string(e.Changes[0].OldValue))
	added := rec.(RelationAdded)
	s.Equal("2000-02-02", added.WeddingDate)
	s.Equal(prior, added.Prior)

	e.Changes[0].OldValue = json.RawMessage(`"1990-01-01"`)
	_, err := Decode(e)
	s.True(dErrors.HasCode(err, dErrors.CodeMalformedLogEntry))
}

func (s *RecordSuite) TestPartialRemovalHasNoRelatedField() {
	e, rec := s.roundTrip(RelationRemoved{Person: s.jan, RelatedID: id.NewPersonID(), Relation: personmodels.RelationSiblings})
	s.Empty(e.RelatedEntities[0].Field)
	s.False(rec.(RelationRemoved).RelatedCleared)
}

func TestDecodeRejectsMalformedEntries(t *testing.T) {
	p, err := personmodels.NewPerson(id.NewPersonID(), personmodels.Attributes{Gender: personmodels.GenderMale}, time.Now())
	require.NoError(t, err)
	base := func(action Action) Entry {
		return Entry{ID: id.NewLogID(), EntityID: p.ID, EntityType: EntityTypePerson, Action: action, Snapshot: p.Clone()}
	}

	tests := []struct {
		name  string
		entry func() Entry
		code  dErrors.Code
	}{
		{"no snapshot", func() Entry { e := base(ActionDelete); e.Snapshot = nil; return e }, dErrors.CodeSnapshotMissing},
		{"snapshot for other entity", func() Entry { e := base(ActionCreate); e.EntityID = id.NewPersonID(); return e }, dErrors.CodeMalformedLogEntry},
		{"unknown action", func() Entry { return base("merge") }, dErrors.CodeMalformedLogEntry},
		{"unknown entity type", func() Entry { e := base(ActionCreate); e.EntityType = "Family"; return e }, dErrors.CodeMalformedLogEntry},
		{"relation without related", func() Entry {
			e := base(ActionAddRelation)
			e.Changes = []personmodels.FieldChange{{Field: "siblings"}}
			return e
		}, dErrors.CodeMalformedLogEntry},
		{"relation with bad field", func() Entry {
			e := base(ActionRemoveRelation)
			e.Changes = []personmodels.FieldChange{{Field: "cousins"}}
			e.RelatedEntities = []RelatedEntity{{EntityID: id.NewPersonID(), EntityType: EntityTypePerson}}
			return e
		}, dErrors.CodeMalformedLogEntry},
		{"delete with bad neighbour field", func() Entry {
			e := base(ActionDelete)
			e.RelatedEntities = []RelatedEntity{{EntityID: id.NewPersonID(), Field: "friends"}}
			return e
		}, dErrors.CodeMalformedLogEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.entry())
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFilter(t *testing.T) {
	f := Filter{Limit: 10_000}
	require.NoError(t, f.Normalize())
	assert.Equal(t, MaxLimit, f.Limit)

	f = Filter{}
	require.NoError(t, f.Normalize())
	assert.Equal(t, DefaultLimit, f.Limit)

	f = Filter{Actions: []Action{"teleport"}}
	assert.Error(t, f.Normalize())

	f = Filter{Limit: -1}
	assert.Error(t, f.Normalize())

	f = Filter{Actions: []Action{ActionCreate, ActionDelete}}
	assert.True(t, f.Matches(Entry{EntityType: EntityTypePerson, Action: ActionDelete}))
	assert.False(t, f.Matches(Entry{EntityType: EntityTypePerson, Action: ActionUpdate}))
	assert.Equal(t, []string{"create", "delete"}, f.ActionStrings())
}
