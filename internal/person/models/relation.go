package models

import (
	"slices"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// RelationType names one of the four relation sets on a person. The string
// values double as the JSON field names.
type RelationType string

const (
	RelationParents  RelationType = "parents"
	RelationChildren RelationType = "children"
	RelationSiblings RelationType = "siblings"
	RelationSpouses  RelationType = "spouses"
)

// relationScanOrder is the order DeleteRelation probes relation sets in.
var relationScanOrder = []RelationType{
	RelationParents,
	RelationChildren,
	RelationSiblings,
	RelationSpouses,
}

// RelationTypes returns the relation kinds in scan order.
func RelationTypes() []RelationType {
	return slices.Clone(relationScanOrder)
}

func ParseRelationType(s string) (RelationType, error) {
	r := RelationType(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidRelationType, "invalid relation type: "+s)
	}
	return r, nil
}

func (r RelationType) IsValid() bool {
	return slices.Contains(relationScanOrder, r)
}

// Inverse maps a relation to the set that holds the back edge on the
// counterpart. Siblings and spouses are their own inverse.
func (r RelationType) Inverse() RelationType {
	switch r {
	case RelationParents:
		return RelationChildren
	case RelationChildren:
		return RelationParents
	}
	return r
}

// RelationIDs lists the counterpart ids in one relation set.
func (p *Person) RelationIDs(r RelationType) []id.PersonID {
	switch r {
	case RelationParents:
		return slices.Clone(p.Parents)
	case RelationChildren:
		return slices.Clone(p.Children)
	case RelationSiblings:
		return slices.Clone(p.Siblings)
	case RelationSpouses:
		ids := make([]id.PersonID, 0, len(p.Spouses))
		for _, s := range p.Spouses {
			ids = append(ids, s.PersonID)
		}
		return ids
	}
	return nil
}

func (p *Person) HasRelation(r RelationType, other id.PersonID) bool {
	if r == RelationSpouses {
		_, ok := p.Spouse(other)
		return ok
	}
	return slices.Contains(p.idSet(r), other)
}

// RelationKindsTo returns every relation kind holding other, in scan order.
// More than one entry means the person is in an invalid state.
func (p *Person) RelationKindsTo(other id.PersonID) []RelationType {
	var kinds []RelationType
	for _, r := range relationScanOrder {
		if p.HasRelation(r, other) {
			kinds = append(kinds, r)
		}
	}
	return kinds
}

func (p *Person) Spouse(other id.PersonID) (SpouseLink, bool) {
	for _, s := range p.Spouses {
		if s.PersonID == other {
			return s, true
		}
	}
	return SpouseLink{}, false
}

func (p *Person) idSet(r RelationType) []id.PersonID {
	switch r {
	case RelationParents:
		return p.Parents
	case RelationChildren:
		return p.Children
	case RelationSiblings:
		return p.Siblings
	}
	return nil
}

func (p *Person) setIDSet(r RelationType, ids []id.PersonID) {
	switch r {
	case RelationParents:
		p.Parents = ids
	case RelationChildren:
		p.Children = ids
	case RelationSiblings:
		p.Siblings = ids
	}
}

// addRelation adds one side of an edge. For spouses a non-empty wedding date
// overwrites the stored one. Reports whether anything changed.
func (p *Person) addRelation(r RelationType, other id.PersonID, weddingDate string) bool {
	if other == p.ID {
		return false
	}
	if r == RelationSpouses {
		for i := range p.Spouses {
			if p.Spouses[i].PersonID == other {
				if weddingDate != "" && p.Spouses[i].WeddingDate != weddingDate {
					p.Spouses[i].WeddingDate = weddingDate
					return true
				}
				return false
			}
		}
		p.Spouses = append(p.Spouses, SpouseLink{PersonID: other, WeddingDate: weddingDate})
		return true
	}
	set := p.idSet(r)
	if slices.Contains(set, other) {
		return false
	}
	p.setIDSet(r, append(set, other))
	return true
}

// removeRelation drops one side of an edge, reporting whether it existed.
func (p *Person) removeRelation(r RelationType, other id.PersonID) bool {
	if r == RelationSpouses {
		before := len(p.Spouses)
		p.Spouses = slices.DeleteFunc(p.Spouses, func(s SpouseLink) bool { return s.PersonID == other })
		return len(p.Spouses) != before
	}
	set := p.idSet(r)
	before := len(set)
	set = slices.DeleteFunc(set, func(x id.PersonID) bool { return x == other })
	p.setIDSet(r, set)
	return len(set) != before
}

// setRelation makes one side of an edge present or absent. A present spouse
// side ends up with exactly weddingDate, empty included.
func (p *Person) setRelation(r RelationType, other id.PersonID, present bool, weddingDate string) bool {
	if !present {
		return p.removeRelation(r, other)
	}
	if r == RelationSpouses {
		for i := range p.Spouses {
			if p.Spouses[i].PersonID == other {
				if p.Spouses[i].WeddingDate == weddingDate {
					return false
				}
				p.Spouses[i].WeddingDate = weddingDate
				return true
			}
		}
	}
	return p.addRelation(r, other, weddingDate)
}
