package models

import (
	"encoding/json"

	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// Record is the typed form of an entry. Exactly one concrete type exists per
// Action and each carries only what its compensation needs:
//
//	Created         -> delete the person
//	Deleted         -> restore the person and re-link surviving relations
//	Updated         -> patch the old values back
//	RelationAdded   -> remove the edge, or put back the one it rewrote
//	RelationRemoved -> add the edge back
//	Restored        -> not undoable
type Record interface {
	Action() Action
	EntityID() id.PersonID
	encode(e *Entry)
}

type Created struct {
	Person *personmodels.Person
}

type Restored struct {
	Person *personmodels.Person
	// RestoredFrom is the id the snapshot originally had, when known.
	RestoredFrom id.PersonID
}

type Updated struct {
	Person  *personmodels.Person
	Changes []personmodels.FieldChange
}

// Neighbour is a person whose relation sets were rewritten by a delete.
type Neighbour struct {
	PersonID id.PersonID
	Fields   []personmodels.RelationType
	Before   *personmodels.Person
}

type Deleted struct {
	Person     *personmodels.Person
	Neighbours []Neighbour
}

type RelationAdded struct {
	Person      *personmodels.Person
	RelatedID   id.PersonID
	Relation    personmodels.RelationType
	WeddingDate string
	Related     *personmodels.Person
	// Prior is the edge before the add. It is non-zero when the add only
	// changed a wedding date or repaired a missing side.
	Prior personmodels.EdgeState
}

type RelationRemoved struct {
	Person      *personmodels.Person
	RelatedID   id.PersonID
	Relation    personmodels.RelationType
	WeddingDate string
	// RelatedCleared is false when the related person was absent and only
	// the initiator side was removed.
	RelatedCleared bool
	Related        *personmodels.Person
}

func (Created) Action() Action         { return ActionCreate }
func (Restored) Action() Action        { return ActionRestore }
func (Updated) Action() Action         { return ActionUpdate }
func (Deleted) Action() Action         { return ActionDelete }
func (RelationAdded) Action() Action   { return ActionAddRelation }
func (RelationRemoved) Action() Action { return ActionRemoveRelation }

func (r Created) EntityID() id.PersonID         { return r.Person.ID }
func (r Restored) EntityID() id.PersonID        { return r.Person.ID }
func (r Updated) EntityID() id.PersonID         { return r.Person.ID }
func (r Deleted) EntityID() id.PersonID         { return r.Person.ID }
func (r RelationAdded) EntityID() id.PersonID   { return r.Person.ID }
func (r RelationRemoved) EntityID() id.PersonID { return r.Person.ID }

const fieldRestoredFrom = "restoredFrom"

func (r Created) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
}

func (r Restored) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
	if !r.RestoredFrom.IsNil() {
		e.RelatedEntities = []RelatedEntity{{
			EntityID:   r.RestoredFrom,
			EntityType: EntityTypePerson,
			Field:      fieldRestoredFrom,
		}}
	}
}

func (r Updated) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
	e.Changes = append([]personmodels.FieldChange{}, r.Changes...)
}

func (r Deleted) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
	for _, n := range r.Neighbours {
		for _, f := range n.Fields {
			e.RelatedEntities = append(e.RelatedEntities, RelatedEntity{
				EntityID:   n.PersonID,
				EntityType: EntityTypePerson,
				Field:      string(f),
				Snapshot:   n.Before.Clone(),
			})
		}
	}
}

func (r RelationAdded) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
	e.Changes = []personmodels.FieldChange{{
		Field:    string(r.Relation),
		OldValue: priorValue(r.Prior),
		NewValue: edgeValue(r.Relation, r.RelatedID, r.WeddingDate),
	}}
	e.RelatedEntities = []RelatedEntity{{
		EntityID:   r.RelatedID,
		EntityType: EntityTypePerson,
		Field:      string(r.Relation.Inverse()),
		Snapshot:   r.Related.Clone(),
	}}
}

func (r RelationRemoved) encode(e *Entry) {
	e.Snapshot = r.Person.Clone()
	e.Changes = []personmodels.FieldChange{{
		Field:    string(r.Relation),
		OldValue: edgeValue(r.Relation, r.RelatedID, r.WeddingDate),
		NewValue: json.RawMessage("null"),
	}}
	related := RelatedEntity{
		EntityID:   r.RelatedID,
		EntityType: EntityTypePerson,
		Snapshot:   r.Related.Clone(),
	}
	if r.RelatedCleared {
		related.Field = string(r.Relation.Inverse())
	}
	e.RelatedEntities = []RelatedEntity{related}
}

// edgeValue is the serialized edge: a bare id, or the spouse link so the
// wedding date survives in the log.
func edgeValue(kind personmodels.RelationType, relatedID id.PersonID, weddingDate string) json.RawMessage {
	var v any = relatedID
	if kind == personmodels.RelationSpouses {
		v = personmodels.SpouseLink{PersonID: relatedID, WeddingDate: weddingDate}
	}
	raw, _ := json.Marshal(v)
	return raw
}

// priorValue is null for a fresh edge, else the sides that already existed.
func priorValue(st personmodels.EdgeState) json.RawMessage {
	if st.IsZero() {
		return json.RawMessage("null")
	}
	raw, _ := json.Marshal(st)
	return raw
}

// Decode validates e and returns its typed record. Entries missing what
// their compensation needs fail here, not during undo.
func Decode(e Entry) (Record, error) {
	if e.EntityType != EntityTypePerson {
		return nil, malformed(e, "unsupported entity type "+e.EntityType)
	}
	if e.Snapshot == nil {
		return nil, dErrors.New(dErrors.CodeSnapshotMissing, "log entry "+e.ID.String()+" has no snapshot")
	}
	if e.Snapshot.ID != e.EntityID {
		return nil, malformed(e, "snapshot does not match entity")
	}
	snap := e.Snapshot.Clone()

	switch e.Action {
	case ActionCreate:
		return Created{Person: snap}, nil
	case ActionRestore:
		rec := Restored{Person: snap}
		for _, re := range e.RelatedEntities {
			if re.Field == fieldRestoredFrom {
				rec.RestoredFrom = re.EntityID
			}
		}
		return rec, nil
	case ActionUpdate:
		// An empty delta is legal; undoing it reports NoChangesToUndo.
		return Updated{Person: snap, Changes: append([]personmodels.FieldChange{}, e.Changes...)}, nil
	case ActionDelete:
		return decodeDeleted(e, snap)
	case ActionAddRelation:
		kind, relatedID, wedding, related, err := decodeEdge(e, func(c personmodels.FieldChange) json.RawMessage { return c.NewValue })
		if err != nil {
			return nil, err
		}
		var prior personmodels.EdgeState
		if old := e.Changes[0].OldValue; len(old) > 0 {
			if err := json.Unmarshal(old, &prior); err != nil {
				return nil, malformed(e, "relation entry with unreadable prior edge")
			}
		}
		return RelationAdded{
			Person:      snap,
			RelatedID:   relatedID,
			Relation:    kind,
			WeddingDate: wedding,
			Related:     related.Snapshot.Clone(),
			Prior:       prior,
		}, nil
	case ActionRemoveRelation:
		kind, relatedID, wedding, related, err := decodeEdge(e, func(c personmodels.FieldChange) json.RawMessage { return c.OldValue })
		if err != nil {
			return nil, err
		}
		return RelationRemoved{
			Person:         snap,
			RelatedID:      relatedID,
			Relation:       kind,
			WeddingDate:    wedding,
			RelatedCleared: related.Field != "",
			Related:        related.Snapshot.Clone(),
		}, nil
	}
	return nil, malformed(e, "unknown action "+string(e.Action))
}

func decodeDeleted(e Entry, snap *personmodels.Person) (Record, error) {
	rec := Deleted{Person: snap}
	index := map[id.PersonID]int{}
	for _, re := range e.RelatedEntities {
		kind, err := personmodels.ParseRelationType(re.Field)
		if err != nil {
			return nil, malformed(e, "related entity with invalid field "+re.Field)
		}
		i, ok := index[re.EntityID]
		if !ok {
			i = len(rec.Neighbours)
			index[re.EntityID] = i
			rec.Neighbours = append(rec.Neighbours, Neighbour{PersonID: re.EntityID, Before: re.Snapshot.Clone()})
		}
		rec.Neighbours[i].Fields = append(rec.Neighbours[i].Fields, kind)
	}
	return rec, nil
}

func decodeEdge(e Entry, value func(personmodels.FieldChange) json.RawMessage) (personmodels.RelationType, id.PersonID, string, RelatedEntity, error) {
	if len(e.Changes) != 1 || len(e.RelatedEntities) != 1 {
		return "", id.PersonID{}, "", RelatedEntity{}, malformed(e, "relation entry needs one change and one related entity")
	}
	change := e.Changes[0]
	kind, err := personmodels.ParseRelationType(change.Field)
	if err != nil {
		return "", id.PersonID{}, "", RelatedEntity{}, malformed(e, "relation entry with invalid field "+change.Field)
	}
	related := e.RelatedEntities[0]
	if related.EntityID.IsNil() {
		return "", id.PersonID{}, "", RelatedEntity{}, malformed(e, "relation entry without related id")
	}
	var wedding string
	if kind == personmodels.RelationSpouses {
		var link personmodels.SpouseLink
		if err := json.Unmarshal(value(change), &link); err == nil && link.PersonID == related.EntityID {
			wedding = link.WeddingDate
		}
	}
	return kind, related.EntityID, wedding, related, nil
}

func malformed(e Entry, reason string) error {
	return dErrors.New(dErrors.CodeMalformedLogEntry, "log entry "+e.ID.String()+": "+reason)
}
