package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	"famtree/pkg/requestcontext"
)

// AddRelativeResult is the outcome of AddPersonWithRelationship.
type AddRelativeResult struct {
	Person       projection.PersonView
	Placeholders []projection.PersonView
	// Touched lists every person created or modified, new person first.
	Touched []id.PersonID
}

// AddPersonWithRelationship creates a person and wires it to the anchor
// according to the relative kind, inferring the links a family tree
// implies (co-parents, shared parents, sibling fan-out). Everything is
// saved at once; each created person gets a create entry and each existing
// person whose relations changed gets an update entry.
func (s *Service) AddPersonWithRelationship(ctx context.Context, owner id.OwnerRef, req models.AddRelativeRequest) (_ *AddRelativeResult, err error) {
	ctx, finish := s.begin(ctx, "AddPersonWithRelationship", owner,
		attribute.String("anchor_id", req.AnchorID.String()),
		attribute.String("relative", string(req.Kind)),
	)
	defer finish(&err)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	attrs := req.Attributes
	attrs.Normalize()
	gender, err := genderForRelative(req.Kind, attrs.Gender)
	if err != nil {
		return nil, err
	}
	attrs.Gender = gender
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	anchor, ok := c.Get(req.AnchorID)
	if !ok {
		return nil, personNotFound(req.AnchorID)
	}

	m := newMutation(c, requestcontext.Now(ctx))
	var placeholders []id.PersonID
	switch req.Kind {
	case models.RelativeFather, models.RelativeMother:
		err = addParent(m, anchor, attrs, req.Options)
	case models.RelativeSibling:
		err = addSibling(m, anchor, attrs, req.Options)
	case models.RelativeSon, models.RelativeDaughter:
		placeholders, err = addChild(m, anchor, attrs, req.Options)
	case models.RelativePartner:
		err = addPartner(m, anchor, attrs, req.Options, req.WeddingDate)
	}
	if err != nil {
		return nil, err
	}

	m.recordCompound()
	if _, err := s.commit(ctx, m); err != nil {
		return nil, err
	}

	created := c.Lookup(m.created[0])
	s.logAudit(ctx, "relative_added",
		"owner", owner.String(),
		"person_id", created.ID.String(),
		"anchor_id", anchor.ID.String(),
		"relative", string(req.Kind),
		"touched", len(m.changedIDs()),
	)
	return &AddRelativeResult{
		Person:       projection.Build(created, c.Lookup),
		Placeholders: projection.BuildIDs(c, placeholders),
		Touched:      m.changedIDs(),
	}, nil
}

// addParent makes the new person a parent of the anchor and of the selected
// siblings, pairing it with the anchor's single unpartnered parent.
func addParent(m *mutation, anchor *models.Person, attrs models.Attributes, opts models.SelectionOptions) error {
	partner, pair := pairSingleParent(anchor, m.c)
	siblings, err := selectRelatives(opts, siblingsToPropagate(anchor, m.c), models.SelectAll)
	if err != nil {
		return err
	}
	parent, err := m.create(attrs)
	if err != nil {
		return err
	}
	m.link(parent, anchor, models.RelationChildren, "")
	for _, sibID := range siblings {
		m.link(parent, m.c.Lookup(sibID), models.RelationChildren, "")
	}
	if pair {
		m.link(partner, parent, models.RelationSpouses, "")
	}
	return nil
}

// addSibling shares the selected parents of the anchor with the new person
// and links it to the anchor and every existing sibling.
func addSibling(m *mutation, anchor *models.Person, attrs models.Attributes, opts models.SelectionOptions) error {
	parents, err := selectRelatives(opts, existing(m.c, anchor.RelationIDs(models.RelationParents)), models.SelectAll)
	if err != nil {
		return err
	}
	siblings := siblingsToPropagate(anchor, m.c)
	sib, err := m.create(attrs)
	if err != nil {
		return err
	}
	for _, parentID := range parents {
		m.link(m.c.Lookup(parentID), sib, models.RelationChildren, "")
	}
	m.link(anchor, sib, models.RelationSiblings, "")
	for _, otherID := range siblings {
		m.link(m.c.Lookup(otherID), sib, models.RelationSiblings, "")
	}
	return nil
}

// addChild makes the new person a child of the anchor and its co-parents,
// synthesizing a placeholder co-parent when the anchor has no partner, and
// a sibling of the anchor's children that share those parents.
func addChild(m *mutation, anchor *models.Person, attrs models.Attributes, opts models.SelectionOptions) ([]id.PersonID, error) {
	coParents, needPlaceholder, err := coParentsFor(anchor, m.c, opts)
	if err != nil {
		return nil, err
	}
	var siblings []id.PersonID
	if !needPlaceholder {
		siblings = childrenSharing(anchor, m.c, coParents)
	}

	child, err := m.create(attrs)
	if err != nil {
		return nil, err
	}
	var placeholders []id.PersonID
	if needPlaceholder {
		phAttrs, ok := placeholderCoParent(anchor)
		if ok {
			ph, err := m.create(phAttrs)
			if err != nil {
				return nil, err
			}
			m.link(anchor, ph, models.RelationSpouses, "")
			coParents = append(coParents, ph.ID)
			placeholders = append(placeholders, ph.ID)
		}
	}

	m.link(anchor, child, models.RelationChildren, "")
	for _, cpID := range coParents {
		m.link(m.c.Lookup(cpID), child, models.RelationChildren, "")
	}
	for _, sibID := range siblings {
		m.link(m.c.Lookup(sibID), child, models.RelationSiblings, "")
	}
	return placeholders, nil
}

// addPartner marries the new person to the anchor and, per options, makes
// it a parent of the anchor's children.
func addPartner(m *mutation, anchor *models.Person, attrs models.Attributes, opts models.SelectionOptions, weddingDate string) error {
	children, err := selectRelatives(opts, existing(m.c, anchor.RelationIDs(models.RelationChildren)), models.SelectNone)
	if err != nil {
		return err
	}
	partner, err := m.create(attrs)
	if err != nil {
		return err
	}
	m.link(anchor, partner, models.RelationSpouses, weddingDate)
	for _, childID := range children {
		m.link(partner, m.c.Lookup(childID), models.RelationChildren, "")
	}
	return nil
}
