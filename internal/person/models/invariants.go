package models

import (
	"fmt"
	"slices"

	id "famtree/pkg/domain"
)

// Violation is one breach of the graph invariants.
type Violation struct {
	PersonID  id.PersonID  `json:"personId"`
	RelatedID id.PersonID  `json:"relatedId"`
	Relation  RelationType `json:"relation"`
	Reason    string       `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s %s: %s", v.PersonID, v.Relation, v.RelatedID, v.Reason)
}

const (
	ReasonSelfReference   = "self reference"
	ReasonDuplicate       = "duplicate entry"
	ReasonMissingInverse  = "missing inverse edge"
	ReasonWeddingMismatch = "wedding date mismatch"
	ReasonDangling        = "dangling reference"
	ReasonMultipleKinds   = "related under more than one relation kind"
)

// CheckInvariants walks every edge of the collection and reports each breach
// in a stable order. A consistent collection yields nil.
func CheckInvariants(c *Collection) []Violation {
	var out []Violation
	for _, p := range c.List() {
		seenKinds := map[id.PersonID]int{}
		for _, r := range relationScanOrder {
			ids := p.RelationIDs(r)
			for i, other := range ids {
				if other == p.ID {
					out = append(out, Violation{p.ID, other, r, ReasonSelfReference})
					continue
				}
				if slices.Index(ids, other) != i {
					out = append(out, Violation{p.ID, other, r, ReasonDuplicate})
					continue
				}
				seenKinds[other]++
				q, ok := c.Get(other)
				if !ok {
					out = append(out, Violation{p.ID, other, r, ReasonDangling})
					continue
				}
				if !q.HasRelation(r.Inverse(), p.ID) {
					out = append(out, Violation{p.ID, other, r, ReasonMissingInverse})
					continue
				}
				if r == RelationSpouses {
					mine, _ := p.Spouse(other)
					theirs, _ := q.Spouse(p.ID)
					if mine.WeddingDate != theirs.WeddingDate {
						out = append(out, Violation{p.ID, other, r, ReasonWeddingMismatch})
					}
				}
			}
		}
		for _, other := range multiKindIDs(p, seenKinds) {
			out = append(out, Violation{p.ID, other, "", ReasonMultipleKinds})
		}
	}
	return out
}

// multiKindIDs returns, in first-seen order, the ids counted under more than
// one relation kind.
func multiKindIDs(p *Person, counts map[id.PersonID]int) []id.PersonID {
	var out []id.PersonID
	for _, r := range relationScanOrder {
		for _, other := range p.RelationIDs(r) {
			if counts[other] > 1 && !slices.Contains(out, other) {
				out = append(out, other)
			}
		}
	}
	return out
}
