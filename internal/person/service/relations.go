package service

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	historymodels "famtree/internal/history/models"
	"famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/requestcontext"
)

// RelationResult is the state of both endpoints after AddRelation. Changed
// is false when the edge already existed on both sides and nothing was
// written.
type RelationResult struct {
	Person  projection.PersonView
	Related projection.PersonView
	Changed bool
}

// RelationRemovalResult reports which sides DeleteRelation cleared. When
// RelatedCleared is false only the initiator side was removed, because the
// related person is missing or never held the inverse.
type RelationRemovalResult struct {
	Person         projection.PersonView
	Relation       models.RelationType
	RelatedCleared bool
}

// AddRelation links personID to relatedID under kind and writes the inverse
// edge on relatedID. A weddingDate is only accepted for spouses.
func (s *Service) AddRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, kind models.RelationType, weddingDate string) (_ *RelationResult, err error) {
	ctx, finish := s.begin(ctx, "AddRelation", owner,
		attribute.String("person_id", personID.String()),
		attribute.String("relation", string(kind)),
	)
	defer finish(&err)

	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidRelationType, "invalid relation type: "+string(kind))
	}
	if personID == relatedID {
		return nil, dErrors.New(dErrors.CodeValidation, "a person cannot be related to themselves")
	}
	if weddingDate != "" && kind != models.RelationSpouses {
		return nil, dErrors.New(dErrors.CodeValidation, "weddingDate only applies to spouses")
	}
	if !models.ValidWeddingDate(weddingDate) {
		return nil, dErrors.New(dErrors.CodeValidation, "weddingDate must use YYYY-MM-DD")
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	a, ok := c.Get(personID)
	if !ok {
		return nil, personNotFound(personID)
	}
	b, ok := c.Get(relatedID)
	if !ok {
		return nil, personNotFound(relatedID)
	}
	if other := conflictingKind(a, b, kind); other != "" {
		return nil, dErrors.New(dErrors.CodeConflict, "persons are already related as "+string(other))
	}

	if models.IsLinked(a, b, kind) && !weddingDateDiffers(a, relatedID, kind, weddingDate) {
		if s.metrics != nil {
			s.metrics.IncNoopRelation()
		}
		return &RelationResult{
			Person:  projection.Build(a, c.Lookup),
			Related: projection.Build(b, c.Lookup),
		}, nil
	}

	prior := models.EdgeStateOf(a, relatedID, b, kind)
	m := newMutation(c, requestcontext.Now(ctx))
	m.link(a, b, kind, weddingDate)
	var stored string
	if link, ok := a.Spouse(relatedID); ok {
		stored = link.WeddingDate
	}
	m.record(historymodels.RelationAdded{
		Person:      a.Clone(),
		RelatedID:   relatedID,
		Relation:    kind,
		WeddingDate: stored,
		Related:     b.Clone(),
		Prior:       prior,
	})
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "relation_added",
		"owner", owner.String(),
		"person_id", personID.String(),
		"related_id", relatedID.String(),
		"relation", string(kind),
	)
	return &RelationResult{
		Person:  projection.Build(a, c.Lookup),
		Related: projection.Build(b, c.Lookup),
		Changed: true,
	}, nil
}

// RestoreRelation puts the edge between personID and relatedID back into a
// previously observed state: a wedding date, or a one-sided edge. The write
// is logged as an add whose prior is the state it replaced, so it can be
// undone in turn. Clearing an edge entirely goes through DeleteRelation.
func (s *Service) RestoreRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, kind models.RelationType, st models.EdgeState) (_ *RelationResult, err error) {
	ctx, finish := s.begin(ctx, "RestoreRelation", owner,
		attribute.String("person_id", personID.String()),
		attribute.String("relation", string(kind)),
	)
	defer finish(&err)

	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidRelationType, "invalid relation type: "+string(kind))
	}
	if st.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "edge state must keep at least one side")
	}
	if !models.ValidWeddingDate(st.WeddingDate) {
		return nil, dErrors.New(dErrors.CodeValidation, "weddingDate must use YYYY-MM-DD")
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	a, ok := c.Get(personID)
	if !ok {
		return nil, personNotFound(personID)
	}
	b, ok := c.Get(relatedID)
	if !ok {
		return nil, personNotFound(relatedID)
	}

	current := models.EdgeStateOf(a, relatedID, b, kind)
	if current == st {
		return &RelationResult{
			Person:  projection.Build(a, c.Lookup),
			Related: projection.Build(b, c.Lookup),
		}, nil
	}

	m := newMutation(c, requestcontext.Now(ctx))
	m.setEdge(a, b, kind, st)
	m.record(historymodels.RelationAdded{
		Person:      a.Clone(),
		RelatedID:   relatedID,
		Relation:    kind,
		WeddingDate: st.WeddingDate,
		Related:     b.Clone(),
		Prior:       current,
	})
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	s.logAudit(ctx, "relation_restored",
		"owner", owner.String(),
		"person_id", personID.String(),
		"related_id", relatedID.String(),
		"relation", string(kind),
	)
	return &RelationResult{
		Person:  projection.Build(a, c.Lookup),
		Related: projection.Build(b, c.Lookup),
		Changed: true,
	}, nil
}

// DeleteRelation removes the edge between personID and relatedID. Without a
// hint the first kind found in scan order is cleared; an id held under more
// than one kind is ambiguous and needs the hint. The initiator side is
// removed even when the related person no longer exists.
func (s *Service) DeleteRelation(ctx context.Context, owner id.OwnerRef, personID, relatedID id.PersonID, hint models.RelationType) (_ *RelationRemovalResult, err error) {
	ctx, finish := s.begin(ctx, "DeleteRelation", owner, attribute.String("person_id", personID.String()))
	defer finish(&err)

	if hint != "" && !hint.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidRelationType, "invalid relation type: "+string(hint))
	}
	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	a, ok := c.Get(personID)
	if !ok {
		return nil, personNotFound(personID)
	}

	kind, err := relationToClear(a, relatedID, hint)
	if err != nil {
		return nil, err
	}
	b := c.Lookup(relatedID)
	var weddingDate string
	if link, ok := a.Spouse(relatedID); ok && kind == models.RelationSpouses {
		weddingDate = link.WeddingDate
	}

	m := newMutation(c, requestcontext.Now(ctx))
	rec := historymodels.RelationRemoved{
		Person:      a.Clone(),
		RelatedID:   relatedID,
		Relation:    kind,
		WeddingDate: weddingDate,
	}
	if b != nil {
		rec.Related = b.Clone()
	}
	res := models.Unlink(a, relatedID, b, kind)
	a.UpdatedAt = m.now
	m.markChanged(personID)
	if res.Related {
		b.UpdatedAt = m.now
		m.markChanged(relatedID)
	}
	rec.RelatedCleared = res.Related
	m.record(rec)
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	if !res.Related && s.logger != nil {
		s.logger.WarnContext(ctx, "relation removed on initiator side only",
			"owner", owner.String(),
			"person_id", personID.String(),
			"related_id", relatedID.String(),
			"relation", string(kind),
		)
	}
	s.logAudit(ctx, "relation_removed",
		"owner", owner.String(),
		"person_id", personID.String(),
		"related_id", relatedID.String(),
		"relation", string(kind),
	)
	return &RelationRemovalResult{
		Person:         projection.Build(a, c.Lookup),
		Relation:       kind,
		RelatedCleared: res.Related,
	}, nil
}

func relationToClear(a *models.Person, relatedID id.PersonID, hint models.RelationType) (models.RelationType, error) {
	kinds := a.RelationKindsTo(relatedID)
	switch {
	case len(kinds) == 0:
		return "", dErrors.New(dErrors.CodeNotFound, "relation not found")
	case hint != "":
		if !slices.Contains(kinds, hint) {
			return "", dErrors.New(dErrors.CodeNotFound, "relation not found: "+string(hint))
		}
		return hint, nil
	case len(kinds) > 1:
		return "", dErrors.New(dErrors.CodeInvariantViolation, "person is related under several kinds; a relation type is required")
	}
	return kinds[0], nil
}

// conflictingKind returns a different kind already connecting a and b on
// either side, or "" when kind is the only one.
func conflictingKind(a, b *models.Person, kind models.RelationType) models.RelationType {
	for _, k := range a.RelationKindsTo(b.ID) {
		if k != kind {
			return k
		}
	}
	for _, k := range b.RelationKindsTo(a.ID) {
		if k != kind.Inverse() {
			return k.Inverse()
		}
	}
	return ""
}

func weddingDateDiffers(a *models.Person, relatedID id.PersonID, kind models.RelationType, weddingDate string) bool {
	if kind != models.RelationSpouses || weddingDate == "" {
		return false
	}
	link, _ := a.Spouse(relatedID)
	return link.WeddingDate != weddingDate
}
