package service

import (
	"context"
	"encoding/json"

	"famtree/internal/history/models"
	personmodels "famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// UndoResult describes the compensation Undo applied.
type UndoResult struct {
	LogID  id.LogID
	Undone models.Action
	// EntityID is the person the compensation acted on. After undoing a
	// delete this is the restored person's new id.
	EntityID id.PersonID
	// Person is the compensated person's state, nil when it was removed.
	Person *projection.PersonView
	// Relinked lists counterparts reconnected to a restored person.
	Relinked []id.PersonID
}

// Undo applies the compensation for one log entry through the graph
// engine, which logs it as a new entry. The original entry is untouched,
// so undoing an undo is an ordinary forward change.
func (s *Service) Undo(ctx context.Context, owner id.OwnerRef, logID id.LogID) (_ *UndoResult, err error) {
	ctx, span := s.startSpan(ctx, "history.Undo", owner, logID)
	var action models.Action
	defer func() {
		endSpan(span, err)
		if s.metrics != nil {
			outcome := "ok"
			if err != nil {
				outcome = string(dErrors.CodeOf(err))
			}
			s.metrics.IncUndo(string(action), outcome)
		}
	}()

	e, rec, err := s.decoded(ctx, owner, logID)
	if e != nil {
		action = e.Action
	}
	if err != nil {
		return nil, err
	}

	res := &UndoResult{LogID: logID, Undone: action, EntityID: rec.EntityID()}
	switch r := rec.(type) {
	case models.Created:
		if _, err := s.graph.DeletePerson(ctx, owner, r.Person.ID); err != nil {
			return nil, err
		}
	case models.Deleted:
		if err := s.undoDelete(ctx, owner, r, res); err != nil {
			return nil, err
		}
	case models.Updated:
		patch := inversePatch(r.Changes)
		if len(patch) == 0 {
			return nil, dErrors.New(dErrors.CodeNoChangesToUndo, "log entry has no changes to undo")
		}
		out, err := s.graph.UpdatePerson(ctx, owner, r.Person.ID, patch, "")
		if err != nil {
			return nil, err
		}
		res.Person = &out.Person
	case models.RelationAdded:
		if !r.Prior.IsZero() {
			out, err := s.graph.RestoreRelation(ctx, owner, r.Person.ID, r.RelatedID, r.Relation, r.Prior)
			if err != nil {
				return nil, err
			}
			res.Person = &out.Person
			break
		}
		out, err := s.graph.DeleteRelation(ctx, owner, r.Person.ID, r.RelatedID, r.Relation)
		if err != nil {
			return nil, err
		}
		res.Person = &out.Person
	case models.RelationRemoved:
		out, err := s.graph.AddRelation(ctx, owner, r.Person.ID, r.RelatedID, r.Relation, r.WeddingDate)
		if err != nil {
			return nil, err
		}
		res.Person = &out.Person
	default:
		return nil, dErrors.New(dErrors.CodeUnsupportedUndoAction, "cannot undo "+string(action))
	}

	s.logAudit(ctx, "change_undone",
		"owner", owner.String(),
		"log_id", logID.String(),
		"action", string(action),
		"person_id", res.EntityID.String(),
	)
	return res, nil
}

// undoDelete restores the snapshot under a new id and reconnects every
// relation whose counterpart still exists, including one-sided references
// the deletion stripped from neighbours.
func (s *Service) undoDelete(ctx context.Context, owner id.OwnerRef, r models.Deleted, res *UndoResult) error {
	restored, err := s.graph.RestorePerson(ctx, owner, r.Person)
	if err != nil {
		return err
	}
	c, err := s.graph.Collection(ctx, owner)
	if err != nil {
		return err
	}

	newID := restored.ID
	res.EntityID = newID
	relinked := map[id.PersonID]bool{}
	relink := func(personID, relatedID id.PersonID, kind personmodels.RelationType, weddingDate string) error {
		if c.Lookup(personID) == nil || c.Lookup(relatedID) == nil {
			return nil
		}
		_, err := s.graph.AddRelation(ctx, owner, personID, relatedID, kind, weddingDate)
		switch {
		case err == nil:
		case dErrors.HasCode(err, dErrors.CodeConflict), dErrors.HasCode(err, dErrors.CodePersonNotFound):
			if s.logger != nil {
				s.logger.WarnContext(ctx, "skipped relation while restoring person",
					"owner", owner.String(),
					"person_id", newID.String(),
					"relation", string(kind),
					"error", err,
				)
			}
			return nil
		default:
			return err
		}
		counterpart := relatedID
		if counterpart == newID {
			counterpart = personID
		}
		if !relinked[counterpart] {
			relinked[counterpart] = true
			res.Relinked = append(res.Relinked, counterpart)
		}
		return nil
	}

	for _, kind := range personmodels.RelationTypes() {
		for _, relatedID := range r.Person.RelationIDs(kind) {
			var wedding string
			if link, ok := r.Person.Spouse(relatedID); ok && kind == personmodels.RelationSpouses {
				wedding = link.WeddingDate
			}
			if err := relink(newID, relatedID, kind, wedding); err != nil {
				return err
			}
		}
	}
	for _, n := range r.Neighbours {
		for _, kind := range n.Fields {
			var wedding string
			if n.Before != nil && kind == personmodels.RelationSpouses {
				if link, ok := n.Before.Spouse(r.Person.ID); ok {
					wedding = link.WeddingDate
				}
			}
			if err := relink(n.PersonID, newID, kind, wedding); err != nil {
				return err
			}
		}
	}

	final, err := s.graph.Collection(ctx, owner)
	if err != nil {
		return err
	}
	if p := final.Lookup(newID); p != nil {
		view := projection.Build(p, final.Lookup)
		res.Person = &view
	}
	return nil
}

// inversePatch builds a patch restoring the old value of every change on a
// patchable field. Relation-field deltas are not patchable and are skipped.
func inversePatch(changes []personmodels.FieldChange) personmodels.Patch {
	patch := personmodels.Patch{}
	for _, ch := range changes {
		if !personmodels.IsPatchableField(ch.Field) {
			continue
		}
		old := ch.OldValue
		if len(old) == 0 {
			old = json.RawMessage("null")
		}
		patch[ch.Field] = old
	}
	return patch
}
