// Package projection builds the relation-resolved read model returned by
// both engines and the transport. It never mutates its input.
package projection

import (
	"time"

	"famtree/internal/person/models"
	id "famtree/pkg/domain"
)

// Lookup resolves a person id within one owner collection. It returns nil
// for ids that are not present.
type Lookup func(id.PersonID) *models.Person

// RelativeRef is a relation entry expanded with the counterpart's identity.
type RelativeRef struct {
	ID            id.PersonID   `json:"id"`
	FirstName     string        `json:"firstName,omitempty"`
	LastName      string        `json:"lastName,omitempty"`
	Gender        models.Gender `json:"gender"`
	RelationLabel string        `json:"relationLabel"`
	WeddingDate   string        `json:"weddingDate,omitempty"`
}

// PersonView is a person with every relation set resolved.
type PersonView struct {
	ID          id.PersonID            `json:"id"`
	Gender      models.Gender          `json:"gender"`
	FirstName   string                 `json:"firstName,omitempty"`
	MiddleName  string                 `json:"middleName,omitempty"`
	LastName    string                 `json:"lastName,omitempty"`
	MaidenName  string                 `json:"maidenName,omitempty"`
	BirthDate   *models.DateDescriptor `json:"birthDate,omitempty"`
	DeathDate   *models.DateDescriptor `json:"deathDate,omitempty"`
	BirthPlace  string                 `json:"birthPlace,omitempty"`
	DeathPlace  string                 `json:"deathPlace,omitempty"`
	BurialPlace string                 `json:"burialPlace,omitempty"`
	Status      models.LifeStatus      `json:"status"`
	PhotoPath   string                 `json:"photoPath,omitempty"`

	Parents  []RelativeRef `json:"parents"`
	Children []RelativeRef `json:"children"`
	Siblings []RelativeRef `json:"siblings"`
	Spouses  []RelativeRef `json:"spouses"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Build projects p. Relation ids that lookup cannot resolve are dropped.
func Build(p *models.Person, lookup Lookup) PersonView {
	v := PersonView{
		ID:          p.ID,
		Gender:      p.Gender,
		FirstName:   p.FirstName,
		MiddleName:  p.MiddleName,
		LastName:    p.LastName,
		MaidenName:  p.MaidenName,
		BirthDate:   p.BirthDate.Clone(),
		DeathDate:   p.DeathDate.Clone(),
		BirthPlace:  p.BirthPlace,
		DeathPlace:  p.DeathPlace,
		BurialPlace: p.BurialPlace,
		Status:      p.Status,
		PhotoPath:   p.PhotoPath,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	v.Parents = resolve(p.Parents, models.RelationParents, lookup)
	v.Children = resolve(p.Children, models.RelationChildren, lookup)
	v.Siblings = resolve(p.Siblings, models.RelationSiblings, lookup)

	v.Spouses = make([]RelativeRef, 0, len(p.Spouses))
	for _, s := range p.Spouses {
		other := lookup(s.PersonID)
		if other == nil {
			continue
		}
		ref := refFor(other, models.RelationSpouses)
		ref.WeddingDate = s.WeddingDate
		v.Spouses = append(v.Spouses, ref)
	}
	return v
}

// BuildAll projects every person of c in collection order.
func BuildAll(c *models.Collection) []PersonView {
	persons := c.List()
	out := make([]PersonView, 0, len(persons))
	for _, p := range persons {
		out = append(out, Build(p, c.Lookup))
	}
	return out
}

// BuildIDs projects the listed persons of c, skipping ids not present.
func BuildIDs(c *models.Collection, ids []id.PersonID) []PersonView {
	out := make([]PersonView, 0, len(ids))
	for _, personID := range ids {
		if p, ok := c.Get(personID); ok {
			out = append(out, Build(p, c.Lookup))
		}
	}
	return out
}

func resolve(ids []id.PersonID, kind models.RelationType, lookup Lookup) []RelativeRef {
	out := make([]RelativeRef, 0, len(ids))
	for _, personID := range ids {
		if other := lookup(personID); other != nil {
			out = append(out, refFor(other, kind))
		}
	}
	return out
}

func refFor(p *models.Person, kind models.RelationType) RelativeRef {
	return RelativeRef{
		ID:            p.ID,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Gender:        p.Gender,
		RelationLabel: Label(kind, p.Gender),
	}
}

// Label names the counterpart's role from the viewer's side: a person in the
// viewer's parents set is their father, mother or parent.
func Label(kind models.RelationType, g models.Gender) string {
	var male, female, neutral string
	switch kind {
	case models.RelationParents:
		male, female, neutral = "father", "mother", "parent"
	case models.RelationChildren:
		male, female, neutral = "son", "daughter", "child"
	case models.RelationSiblings:
		male, female, neutral = "brother", "sister", "sibling"
	case models.RelationSpouses:
		male, female, neutral = "husband", "wife", "spouse"
	default:
		return ""
	}
	switch g {
	case models.GenderMale:
		return male
	case models.GenderFemale:
		return female
	}
	return neutral
}
