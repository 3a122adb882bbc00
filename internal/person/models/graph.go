package models

import (
	id "famtree/pkg/domain"
)

// Link adds the edge kind from a to b together with its inverse on b. For
// spouses an empty weddingDate keeps whatever date either side already holds,
// so a repaired edge never disagrees with its counterpart.
func Link(a, b *Person, kind RelationType, weddingDate string) bool {
	if a.ID == b.ID {
		return false
	}
	if kind == RelationSpouses && weddingDate == "" {
		if l, ok := a.Spouse(b.ID); ok && l.WeddingDate != "" {
			weddingDate = l.WeddingDate
		} else if l, ok := b.Spouse(a.ID); ok {
			weddingDate = l.WeddingDate
		}
	}
	changed := a.addRelation(kind, b.ID, weddingDate)
	if b.addRelation(kind.Inverse(), a.ID, weddingDate) {
		changed = true
	}
	return changed
}

// IsLinked reports whether both sides of the edge are present.
func IsLinked(a, b *Person, kind RelationType) bool {
	return a.HasRelation(kind, b.ID) && b.HasRelation(kind.Inverse(), a.ID)
}

// UnlinkResult describes what Unlink removed on each side.
type UnlinkResult struct {
	Initiator bool
	Related   bool
}

// Unlink removes kind from a toward relatedID and, when b is non-nil, the
// inverse from b. The initiator side is always attempted first.
func Unlink(a *Person, relatedID id.PersonID, b *Person, kind RelationType) UnlinkResult {
	res := UnlinkResult{Initiator: a.removeRelation(kind, relatedID)}
	if b != nil {
		res.Related = b.removeRelation(kind.Inverse(), a.ID)
	}
	return res
}

// NeighbourChange is a person whose relation fields were rewritten by Detach,
// with the pre-image taken before the first modification.
type NeighbourChange struct {
	Before *Person
	After  *Person
	Fields []RelationType
}

// Detach removes personID from the collection and strips every reference to
// it from all remaining persons in one pass. References are found by
// scanning, not by trusting the target's own relation sets, so one-sided
// edges are cleaned as well. Returns the removed person and the modified
// neighbours ordered like Collection.List.
func Detach(c *Collection, personID id.PersonID) (*Person, []NeighbourChange) {
	target, ok := c.Get(personID)
	if !ok {
		return nil, nil
	}
	c.Remove(personID)

	var changes []NeighbourChange
	for _, p := range c.List() {
		before := p.Clone()
		var fields []RelationType
		for _, r := range relationScanOrder {
			if p.removeRelation(r, personID) {
				fields = append(fields, r)
			}
		}
		if len(fields) > 0 {
			changes = append(changes, NeighbourChange{Before: before, After: p, Fields: fields})
		}
	}
	return target, changes
}

// EdgeState captures which sides of an edge exist and, for spouses, the
// wedding date they carry. The zero value is an absent edge.
type EdgeState struct {
	Forward     bool   `json:"forward"`
	Inverse     bool   `json:"inverse"`
	WeddingDate string `json:"weddingDate,omitempty"`
}

// IsZero reports whether neither side exists.
func (s EdgeState) IsZero() bool {
	return !s.Forward && !s.Inverse
}

// EdgeStateOf reads the edge kind from a toward relatedID and its inverse on
// b, which may be nil. The wedding date is taken from a when it holds the
// forward side, else from b.
func EdgeStateOf(a *Person, relatedID id.PersonID, b *Person, kind RelationType) EdgeState {
	st := EdgeState{Forward: a.HasRelation(kind, relatedID)}
	if b != nil {
		st.Inverse = b.HasRelation(kind.Inverse(), a.ID)
	}
	if kind != RelationSpouses {
		return st
	}
	if l, ok := a.Spouse(relatedID); ok {
		st.WeddingDate = l.WeddingDate
	} else if b != nil {
		if l, ok := b.Spouse(a.ID); ok {
			st.WeddingDate = l.WeddingDate
		}
	}
	return st
}

// SetEdge rewrites both sides of the edge so EdgeStateOf returns st. Unlike
// Link it also clears a wedding date. b may be nil, in which case only the
// forward side is touched. Reports whether anything changed.
func SetEdge(a *Person, relatedID id.PersonID, b *Person, kind RelationType, st EdgeState) bool {
	changed := a.setRelation(kind, relatedID, st.Forward, st.WeddingDate)
	if b != nil && b.setRelation(kind.Inverse(), a.ID, st.Inverse, st.WeddingDate) {
		changed = true
	}
	return changed
}
