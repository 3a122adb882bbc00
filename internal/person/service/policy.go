package service

import (
	"slices"

	"famtree/internal/person/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// placeholderFirstName names the synthesized co-parent of a child whose
// anchor parent has no spouse.
const placeholderFirstName = "Unknown"

// genderForRelative fixes the gender implied by the relative kind. A gender
// in the attributes that contradicts it is rejected.
func genderForRelative(kind models.RelativeKind, given models.Gender) (models.Gender, error) {
	var implied models.Gender
	switch kind {
	case models.RelativeFather, models.RelativeSon:
		implied = models.GenderMale
	case models.RelativeMother, models.RelativeDaughter:
		implied = models.GenderFemale
	case models.RelativeSibling, models.RelativePartner:
		if !given.IsValid() {
			return "", dErrors.New(dErrors.CodeValidation, "gender is required for a "+string(kind))
		}
		return given, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidRelationType, "invalid relative type: "+string(kind))
	}
	if given != "" && given != implied {
		return "", dErrors.New(dErrors.CodeValidation, "a "+string(kind)+" must be "+string(implied))
	}
	return implied, nil
}

// selectRelatives applies the caller's selection to candidates. def is used
// when the caller did not choose a mode. Selected ids must be candidates.
func selectRelatives(opts models.SelectionOptions, candidates []id.PersonID, def models.SelectionMode) ([]id.PersonID, error) {
	mode := opts.Mode
	if mode == models.SelectDefault {
		mode = def
	}
	switch mode {
	case models.SelectNone:
		return nil, nil
	case models.SelectSelected:
		for _, sel := range opts.SelectedIDs {
			if !slices.Contains(candidates, sel) {
				return nil, dErrors.New(dErrors.CodeValidation, "selected person is not eligible: "+sel.String())
			}
		}
		out := make([]id.PersonID, 0, len(opts.SelectedIDs))
		for _, c := range candidates {
			if slices.Contains(opts.SelectedIDs, c) {
				out = append(out, c)
			}
		}
		return out, nil
	default:
		return slices.Clone(candidates), nil
	}
}

// coParentsFor picks the anchor's spouses who also parent a new child
// (default: all spouses). When the anchor has no spouse and the caller did
// not opt out, needPlaceholder asks for a synthesized partner.
func coParentsFor(anchor *models.Person, c *models.Collection, opts models.SelectionOptions) (coParents []id.PersonID, needPlaceholder bool, err error) {
	spouses := existing(c, spouseIDs(anchor))
	if len(spouses) > 0 {
		coParents, err = selectRelatives(opts, spouses, models.SelectAll)
		return coParents, false, err
	}
	if len(opts.SelectedIDs) > 0 {
		return nil, false, dErrors.New(dErrors.CodeValidation, "anchor has no partner to select")
	}
	if opts.Mode == models.SelectNone {
		return nil, false, nil
	}
	_, ok := anchor.Gender.Opposite()
	return nil, ok, nil
}

// placeholderCoParent synthesizes the opposite-gender "Unknown" partner of
// anchor. Returns false for a non-binary anchor.
func placeholderCoParent(anchor *models.Person) (models.Attributes, bool) {
	g, ok := anchor.Gender.Opposite()
	if !ok {
		return models.Attributes{}, false
	}
	return models.Attributes{
		Gender:    g,
		FirstName: placeholderFirstName,
		Status:    models.StatusAlive,
	}, true
}

// siblingsToPropagate returns the anchor's existing siblings. A new sibling
// is linked to each of them so sibling sets stay materialized.
func siblingsToPropagate(anchor *models.Person, c *models.Collection) []id.PersonID {
	return existing(c, anchor.RelationIDs(models.RelationSiblings))
}

// pairSingleParent returns the anchor's only parent when that parent has no
// spouse, so a newly added second parent can be paired with it.
func pairSingleParent(anchor *models.Person, c *models.Collection) (*models.Person, bool) {
	parents := existing(c, anchor.RelationIDs(models.RelationParents))
	if len(parents) != 1 {
		return nil, false
	}
	p := c.Lookup(parents[0])
	if len(existing(c, spouseIDs(p))) > 0 {
		return nil, false
	}
	return p, true
}

// childrenSharing returns the anchor's existing children whose parents
// include every one of coParents.
func childrenSharing(anchor *models.Person, c *models.Collection, coParents []id.PersonID) []id.PersonID {
	var out []id.PersonID
	for _, childID := range existing(c, anchor.RelationIDs(models.RelationChildren)) {
		child := c.Lookup(childID)
		shares := true
		for _, cp := range coParents {
			if !child.HasRelation(models.RelationParents, cp) {
				shares = false
				break
			}
		}
		if shares {
			out = append(out, childID)
		}
	}
	return out
}

func spouseIDs(p *models.Person) []id.PersonID {
	return p.RelationIDs(models.RelationSpouses)
}

// existing drops ids that do not resolve in c.
func existing(c *models.Collection, ids []id.PersonID) []id.PersonID {
	out := make([]id.PersonID, 0, len(ids))
	for _, personID := range ids {
		if c.Lookup(personID) != nil {
			out = append(out, personID)
		}
	}
	return out
}
