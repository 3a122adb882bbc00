package service

import (
	"context"
	"encoding/json"
	"maps"

	"go.opentelemetry.io/otel/attribute"

	historymodels "famtree/internal/history/models"
	"famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/requestcontext"
)

// UpdateResult is the merged person and the minimal delta that was logged.
type UpdateResult struct {
	Person  projection.PersonView
	Changes []models.FieldChange
}

// AffectedNeighbour is a person whose relation fields DeletePerson rewrote.
// Changes carries the pre and post image of each modified relation field.
type AffectedNeighbour struct {
	PersonID id.PersonID
	Changes  []models.FieldChange
}

type DeleteResult struct {
	Deleted  *models.Person
	Affected []AffectedNeighbour
}

func (s *Service) CreatePerson(ctx context.Context, owner id.OwnerRef, attrs models.Attributes) (_ *projection.PersonView, err error) {
	ctx, finish := s.begin(ctx, "CreatePerson", owner)
	defer finish(&err)

	attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	m := newMutation(c, requestcontext.Now(ctx))
	p, err := m.create(attrs)
	if err != nil {
		return nil, err
	}
	m.record(historymodels.Created{Person: p.Clone()})
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "person_created", "owner", owner.String(), "person_id", p.ID.String())
	view := projection.Build(p, c.Lookup)
	return &view, nil
}

// UpdatePerson merges patch into the person. A non-empty photoPath replaces
// the stored photo as if it were part of the patch. The update is logged
// even when nothing changed.
func (s *Service) UpdatePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID, patch models.Patch, photoPath string) (_ *UpdateResult, err error) {
	ctx, finish := s.begin(ctx, "UpdatePerson", owner, attribute.String("person_id", personID.String()))
	defer finish(&err)

	if photoPath != "" {
		raw, err := json.Marshal(photoPath)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode photo path")
		}
		merged := make(models.Patch, len(patch)+1)
		maps.Copy(merged, patch)
		merged["photoPath"] = raw
		patch = merged
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	current, ok := c.Get(personID)
	if !ok {
		return nil, personNotFound(personID)
	}
	next, changes, err := models.ApplyPatch(current, patch)
	if err != nil {
		return nil, err
	}

	m := newMutation(c, requestcontext.Now(ctx))
	if len(changes) > 0 {
		next.UpdatedAt = m.now
		c.Put(next)
		m.markChanged(personID)
	}
	m.record(historymodels.Updated{Person: next.Clone(), Changes: changes})
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "person_updated",
		"owner", owner.String(),
		"person_id", personID.String(),
		"changed_fields", len(changes),
	)
	return &UpdateResult{Person: projection.Build(next, c.Lookup), Changes: changes}, nil
}

// DeletePerson removes the person and every reference to it. Only the
// deleted person is logged; the neighbours it was detached from travel as
// related entities of that entry.
func (s *Service) DeletePerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID) (_ *DeleteResult, err error) {
	ctx, finish := s.begin(ctx, "DeletePerson", owner, attribute.String("person_id", personID.String()))
	defer finish(&err)

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Get(personID); !ok {
		return nil, personNotFound(personID)
	}

	m := newMutation(c, requestcontext.Now(ctx))
	removed, neighbours := models.Detach(c, personID)
	m.removed = append(m.removed, personID)

	rec := historymodels.Deleted{Person: removed.Clone()}
	affected := make([]AffectedNeighbour, 0, len(neighbours))
	for _, n := range neighbours {
		n.After.UpdatedAt = m.now
		m.markChanged(n.After.ID)
		rec.Neighbours = append(rec.Neighbours, historymodels.Neighbour{
			PersonID: n.After.ID,
			Fields:   n.Fields,
			Before:   n.Before,
		})
		affected = append(affected, AffectedNeighbour{
			PersonID: n.After.ID,
			Changes:  relationDelta(n.Before, n.After),
		})
	}
	m.record(rec)
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "person_deleted",
		"owner", owner.String(),
		"person_id", personID.String(),
		"affected", len(affected),
	)
	return &DeleteResult{Deleted: removed, Affected: affected}, nil
}

// RestorePerson recreates a person from a snapshot's attributes under a
// fresh id with no relations. Callers re-link relations themselves.
func (s *Service) RestorePerson(ctx context.Context, owner id.OwnerRef, snapshot *models.Person) (_ *projection.PersonView, err error) {
	if snapshot == nil {
		return nil, dErrors.New(dErrors.CodeSnapshotMissing, "snapshot is required")
	}
	ctx, finish := s.begin(ctx, "RestorePerson", owner, attribute.String("restored_from", snapshot.ID.String()))
	defer finish(&err)

	attrs := snapshot.Attributes()
	attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}

	m := newMutation(c, requestcontext.Now(ctx))
	p, err := m.create(attrs)
	if err != nil {
		return nil, err
	}
	m.record(historymodels.Restored{Person: p.Clone(), RestoredFrom: snapshot.ID})
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "person_restored",
		"owner", owner.String(),
		"person_id", p.ID.String(),
		"restored_from", snapshot.ID.String(),
	)
	view := projection.Build(p, c.Lookup)
	return &view, nil
}

// GetAllWithRelations projects every person of the owner's collection.
func (s *Service) GetAllWithRelations(ctx context.Context, owner id.OwnerRef) ([]projection.PersonView, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return projection.BuildAll(c), nil
}

func (s *Service) GetPerson(ctx context.Context, owner id.OwnerRef, personID id.PersonID) (*projection.PersonView, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	p, ok := c.Get(personID)
	if !ok {
		return nil, personNotFound(personID)
	}
	view := projection.Build(p, c.Lookup)
	return &view, nil
}

// Collection returns the owner's current collection. The result is a
// private copy the caller may mutate.
func (s *Service) Collection(ctx context.Context, owner id.OwnerRef) (*models.Collection, error) {
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}
