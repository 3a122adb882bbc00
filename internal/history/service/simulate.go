package service

import (
	"context"
	"slices"
	"time"

	"famtree/internal/history/models"
	personmodels "famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/requestcontext"
)

// Simulation previews an undo: the affected persons as they are now and as
// they would be afterwards. Persons that would be created appear only in
// After; persons that would be removed are listed in Removed.
type Simulation struct {
	LogID   id.LogID
	Undone  models.Action
	Before  []projection.PersonView
	After   []projection.PersonView
	Removed []id.PersonID
}

// SimulateUndo computes what Undo would do by applying the same graph
// primitives to a private copy of the current collection. Nothing is
// persisted or logged.
func (s *Service) SimulateUndo(ctx context.Context, owner id.OwnerRef, logID id.LogID) (_ *Simulation, err error) {
	ctx, span := s.startSpan(ctx, "history.SimulateUndo", owner, logID)
	defer func() { endSpan(span, err) }()

	e, rec, err := s.decoded(ctx, owner, logID)
	if err != nil {
		return nil, err
	}
	current, err := s.graph.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	sim := current.Clone()
	out := &Simulation{LogID: logID, Undone: e.Action}

	var before, after []id.PersonID
	switch r := rec.(type) {
	case models.Created:
		before, after, err = simulateCreate(sim, r, out)
	case models.Deleted:
		before, after, err = simulateDelete(sim, r, requestcontext.Now(ctx))
	case models.Updated:
		before, after, err = simulateUpdate(sim, r)
	case models.RelationAdded:
		before, after, err = simulateRelation(sim, r.Person.ID, r.RelatedID, func(a, b *personmodels.Person) error {
			if !r.Prior.IsZero() {
				if b == nil {
					return dErrors.New(dErrors.CodePersonNotFound, "person not found: "+r.RelatedID.String())
				}
				personmodels.SetEdge(a, r.RelatedID, b, r.Relation, r.Prior)
				return nil
			}
			if !a.HasRelation(r.Relation, r.RelatedID) {
				return dErrors.New(dErrors.CodeNotFound, "relation not found")
			}
			personmodels.Unlink(a, r.RelatedID, b, r.Relation)
			return nil
		})
	case models.RelationRemoved:
		before, after, err = simulateRelation(sim, r.Person.ID, r.RelatedID, func(a, b *personmodels.Person) error {
			if b == nil {
				return dErrors.New(dErrors.CodePersonNotFound, "person not found: "+r.RelatedID.String())
			}
			personmodels.Link(a, b, r.Relation, r.WeddingDate)
			return nil
		})
	default:
		err = dErrors.New(dErrors.CodeUnsupportedUndoAction, "cannot undo "+string(e.Action))
	}
	if err != nil {
		return nil, err
	}

	out.Before = projection.BuildIDs(current, before)
	out.After = projection.BuildIDs(sim, after)
	if s.metrics != nil {
		s.metrics.IncSimulation(string(e.Action))
	}
	return out, nil
}

func simulateCreate(sim *personmodels.Collection, r models.Created, out *Simulation) ([]id.PersonID, []id.PersonID, error) {
	if sim.Lookup(r.Person.ID) == nil {
		return nil, nil, dErrors.New(dErrors.CodePersonNotFound, "person not found: "+r.Person.ID.String())
	}
	_, neighbours := personmodels.Detach(sim, r.Person.ID)
	ids := make([]id.PersonID, 0, len(neighbours))
	for _, n := range neighbours {
		ids = append(ids, n.After.ID)
	}
	out.Removed = []id.PersonID{r.Person.ID}
	return append([]id.PersonID{r.Person.ID}, ids...), ids, nil
}

// simulateDelete mirrors undoDelete: a fresh person from the snapshot,
// re-linked to every counterpart that still exists and is not already
// related to it under another kind.
func simulateDelete(sim *personmodels.Collection, r models.Deleted, now time.Time) ([]id.PersonID, []id.PersonID, error) {
	restored, err := personmodels.NewPerson(id.NewPersonID(), r.Person.Attributes(), now)
	if err != nil {
		return nil, nil, err
	}
	sim.Put(restored)

	var counterparts []id.PersonID
	link := func(a, b *personmodels.Person, kind personmodels.RelationType, weddingDate string) {
		for _, k := range a.RelationKindsTo(b.ID) {
			if k != kind {
				return
			}
		}
		personmodels.Link(a, b, kind, weddingDate)
		other := b.ID
		if other == restored.ID {
			other = a.ID
		}
		if !slices.Contains(counterparts, other) {
			counterparts = append(counterparts, other)
		}
	}
	for _, kind := range personmodels.RelationTypes() {
		for _, relatedID := range r.Person.RelationIDs(kind) {
			related := sim.Lookup(relatedID)
			if related == nil {
				continue
			}
			var wedding string
			if l, ok := r.Person.Spouse(relatedID); ok && kind == personmodels.RelationSpouses {
				wedding = l.WeddingDate
			}
			link(restored, related, kind, wedding)
		}
	}
	for _, n := range r.Neighbours {
		neighbour := sim.Lookup(n.PersonID)
		if neighbour == nil {
			continue
		}
		for _, kind := range n.Fields {
			var wedding string
			if n.Before != nil && kind == personmodels.RelationSpouses {
				if l, ok := n.Before.Spouse(r.Person.ID); ok {
					wedding = l.WeddingDate
				}
			}
			link(neighbour, restored, kind, wedding)
		}
	}
	return counterparts, append([]id.PersonID{restored.ID}, counterparts...), nil
}

func simulateUpdate(sim *personmodels.Collection, r models.Updated) ([]id.PersonID, []id.PersonID, error) {
	patch := inversePatch(r.Changes)
	if len(patch) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeNoChangesToUndo, "log entry has no changes to undo")
	}
	current := sim.Lookup(r.Person.ID)
	if current == nil {
		return nil, nil, dErrors.New(dErrors.CodePersonNotFound, "person not found: "+r.Person.ID.String())
	}
	next, _, err := personmodels.ApplyPatch(current, patch)
	if err != nil {
		return nil, nil, err
	}
	sim.Put(next)
	ids := []id.PersonID{r.Person.ID}
	return ids, ids, nil
}

func simulateRelation(sim *personmodels.Collection, personID, relatedID id.PersonID, apply func(a, b *personmodels.Person) error) ([]id.PersonID, []id.PersonID, error) {
	a := sim.Lookup(personID)
	if a == nil {
		return nil, nil, dErrors.New(dErrors.CodePersonNotFound, "person not found: "+personID.String())
	}
	b := sim.Lookup(relatedID)
	if err := apply(a, b); err != nil {
		return nil, nil, err
	}
	ids := []id.PersonID{personID}
	if b != nil {
		ids = append(ids, relatedID)
	}
	return ids, ids, nil
}
