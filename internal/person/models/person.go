package models

import (
	"strings"
	"time"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

type Gender string

const (
	GenderMale      Gender = "male"
	GenderFemale    Gender = "female"
	GenderNonBinary Gender = "non-binary"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary:
		return true
	}
	return false
}

// Opposite returns the other binary gender. Non-binary has no opposite.
func (g Gender) Opposite() (Gender, bool) {
	switch g {
	case GenderMale:
		return GenderFemale, true
	case GenderFemale:
		return GenderMale, true
	}
	return "", false
}

type LifeStatus string

const (
	StatusAlive    LifeStatus = "alive"
	StatusDeceased LifeStatus = "deceased"
)

func (s LifeStatus) IsValid() bool {
	return s == StatusAlive || s == StatusDeceased
}

// SpouseLink is one side of a marriage edge. The wedding date belongs to the
// pairing, so both sides carry the same value.
type SpouseLink struct {
	PersonID    id.PersonID `json:"personId"`
	WeddingDate string      `json:"weddingDate,omitempty"`
}

// Person is a node of an owner's genealogy graph.
//
// Invariants (enforced by the graph primitives in graph.go):
//   - relation sets are duplicate-free and never contain the person's own id
//   - every edge has its inverse on the counterpart when both live in the
//     same collection (parents/children, siblings/siblings, spouses/spouses)
//   - spouse edges agree on the wedding date
type Person struct {
	ID          id.PersonID     `json:"id"`
	Gender      Gender          `json:"gender"`
	FirstName   string          `json:"firstName,omitempty"`
	MiddleName  string          `json:"middleName,omitempty"`
	LastName    string          `json:"lastName,omitempty"`
	MaidenName  string          `json:"maidenName,omitempty"`
	BirthDate   *DateDescriptor `json:"birthDate,omitempty"`
	DeathDate   *DateDescriptor `json:"deathDate,omitempty"`
	BirthPlace  string          `json:"birthPlace,omitempty"`
	DeathPlace  string          `json:"deathPlace,omitempty"`
	BurialPlace string          `json:"burialPlace,omitempty"`
	Status      LifeStatus      `json:"status"`
	PhotoPath   string          `json:"photoPath,omitempty"`

	Parents  []id.PersonID `json:"parents"`
	Children []id.PersonID `json:"children"`
	Siblings []id.PersonID `json:"siblings"`
	Spouses  []SpouseLink  `json:"spouses"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Attributes are the non-relational fields a caller may set on creation.
type Attributes struct {
	Gender      Gender          `json:"gender"`
	FirstName   string          `json:"firstName,omitempty"`
	MiddleName  string          `json:"middleName,omitempty"`
	LastName    string          `json:"lastName,omitempty"`
	MaidenName  string          `json:"maidenName,omitempty"`
	BirthDate   *DateDescriptor `json:"birthDate,omitempty"`
	DeathDate   *DateDescriptor `json:"deathDate,omitempty"`
	BirthPlace  string          `json:"birthPlace,omitempty"`
	DeathPlace  string          `json:"deathPlace,omitempty"`
	BurialPlace string          `json:"burialPlace,omitempty"`
	Status      LifeStatus      `json:"status"`
	PhotoPath   string          `json:"photoPath,omitempty"`
}

// Normalize trims names and places and defaults the life status.
func (a *Attributes) Normalize() {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.MiddleName = strings.TrimSpace(a.MiddleName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.MaidenName = strings.TrimSpace(a.MaidenName)
	a.BirthPlace = strings.TrimSpace(a.BirthPlace)
	a.DeathPlace = strings.TrimSpace(a.DeathPlace)
	a.BurialPlace = strings.TrimSpace(a.BurialPlace)
	if a.Status == "" {
		a.Status = StatusAlive
	}
}

func (a Attributes) Validate() error {
	if !a.Gender.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "gender must be one of male, female, non-binary")
	}
	if !a.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be alive or deceased")
	}
	if err := a.BirthDate.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid birthDate")
	}
	if err := a.DeathDate.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid deathDate")
	}
	return nil
}

// NewPerson builds a person with empty relation sets.
func NewPerson(personID id.PersonID, attrs Attributes, now time.Time) (*Person, error) {
	attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return nil, err
	}
	p := &Person{ID: personID, CreatedAt: now, UpdatedAt: now}
	p.setAttributes(attrs)
	p.normalizeRelations()
	return p, nil
}

// Attributes extracts the scalar fields, e.g. to re-create a person from a
// change-log snapshot.
func (p *Person) Attributes() Attributes {
	return Attributes{
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
	}
}

func (p *Person) setAttributes(a Attributes) {
	p.Gender = a.Gender
	p.FirstName = a.FirstName
	p.MiddleName = a.MiddleName
	p.LastName = a.LastName
	p.MaidenName = a.MaidenName
	p.BirthDate = a.BirthDate.Clone()
	p.DeathDate = a.DeathDate.Clone()
	p.BirthPlace = a.BirthPlace
	p.DeathPlace = a.DeathPlace
	p.BurialPlace = a.BurialPlace
	p.Status = a.Status
	p.PhotoPath = a.PhotoPath
}

// DisplayName joins first and last name for logs and placeholder labels.
func (p *Person) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Clone returns a deep copy; snapshots and simulations never share slices
// with live collection members.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	c := *p
	c.BirthDate = p.BirthDate.Clone()
	c.DeathDate = p.DeathDate.Clone()
	c.Parents = append([]id.PersonID{}, p.Parents...)
	c.Children = append([]id.PersonID{}, p.Children...)
	c.Siblings = append([]id.PersonID{}, p.Siblings...)
	c.Spouses = append([]SpouseLink{}, p.Spouses...)
	return &c
}

// normalizeRelations turns nil relation sets into empty ones so documents
// always serialize "[]".
func (p *Person) normalizeRelations() {
	if p.Parents == nil {
		p.Parents = []id.PersonID{}
	}
	if p.Children == nil {
		p.Children = []id.PersonID{}
	}
	if p.Siblings == nil {
		p.Siblings = []id.PersonID{}
	}
	if p.Spouses == nil {
		p.Spouses = []SpouseLink{}
	}
}
