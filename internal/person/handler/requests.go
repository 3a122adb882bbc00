package handler

import (
	"famtree/internal/person/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// PersonFields are the writable person attributes as they arrive on the
// wire. Gender is optional here because compound adds infer it from the
// relative kind.
type PersonFields struct {
	Gender      string                 `json:"gender" validate:"omitempty,oneof=male female non-binary"`
	FirstName   string                 `json:"firstName" validate:"max=100"`
	MiddleName  string                 `json:"middleName" validate:"max=100"`
	LastName    string                 `json:"lastName" validate:"max=100"`
	MaidenName  string                 `json:"maidenName" validate:"max=100"`
	BirthDate   *models.DateDescriptor `json:"birthDate"`
	DeathDate   *models.DateDescriptor `json:"deathDate"`
	BirthPlace  string                 `json:"birthPlace" validate:"max=200"`
	DeathPlace  string                 `json:"deathPlace" validate:"max=200"`
	BurialPlace string                 `json:"burialPlace" validate:"max=200"`
	Status      string                 `json:"status" validate:"omitempty,oneof=alive deceased"`
	PhotoPath   string                 `json:"photoPath" validate:"max=500"`
}

func (f PersonFields) attributes() models.Attributes {
	return models.Attributes{
		Gender:      models.Gender(f.Gender),
		FirstName:   f.FirstName,
		MiddleName:  f.MiddleName,
		LastName:    f.LastName,
		MaidenName:  f.MaidenName,
		BirthDate:   f.BirthDate,
		DeathDate:   f.DeathDate,
		BirthPlace:  f.BirthPlace,
		DeathPlace:  f.DeathPlace,
		BurialPlace: f.BurialPlace,
		Status:      models.LifeStatus(f.Status),
		PhotoPath:   f.PhotoPath,
	}
}

// CreatePersonRequest is the body of POST /persons.
type CreatePersonRequest struct {
	PersonFields
}

func (r *CreatePersonRequest) Validate() error {
	if r.Gender == "" {
		return dErrors.New(dErrors.CodeValidation, "gender is required")
	}
	attrs := r.attributes()
	attrs.Normalize()
	return attrs.Validate()
}

func (r *CreatePersonRequest) Attributes() models.Attributes {
	return r.attributes()
}

// UpdatePersonRequest is the body of PATCH /persons/{personID}. Fields holds
// the partial attributes; PhotoPath is set when a new upload replaced the
// photo.
type UpdatePersonRequest struct {
	Fields    models.Patch `json:"fields"`
	PhotoPath string       `json:"photoPath" validate:"max=500"`
}

func (r *UpdatePersonRequest) Validate() error {
	if len(r.Fields) == 0 && r.PhotoPath == "" {
		return dErrors.New(dErrors.CodeValidation, "fields is required")
	}
	if r.Fields == nil {
		r.Fields = models.Patch{}
	}
	return r.Fields.Validate()
}

// AddRelationRequest is the body of POST /persons/{personID}/relations.
type AddRelationRequest struct {
	RelatedID    string `json:"relatedId" validate:"required,uuid"`
	RelationType string `json:"relationType" validate:"required"`
	WeddingDate  string `json:"weddingDate" validate:"max=10"`

	parsedRelatedID id.PersonID
	parsedType      models.RelationType
}

func (r *AddRelationRequest) Validate() error {
	relatedID, err := id.ParsePersonID(r.RelatedID)
	if err != nil {
		return err
	}
	kind, err := models.ParseRelationType(r.RelationType)
	if err != nil {
		return err
	}
	if !models.ValidWeddingDate(r.WeddingDate) {
		return dErrors.New(dErrors.CodeValidation, "weddingDate must use YYYY-MM-DD")
	}
	r.parsedRelatedID = relatedID
	r.parsedType = kind
	return nil
}

// AddRelativeRequest is the body of POST /persons/{personID}/relatives: a new
// person wired to the path's anchor person.
type AddRelativeRequest struct {
	Person         PersonFields `json:"person"`
	RelationType   string       `json:"relationType" validate:"required"`
	SelectedOption string       `json:"selectedOption" validate:"omitempty,oneof=all none selected"`
	SelectedIDs    []string     `json:"selectedIds" validate:"max=500,dive,uuid"`
	WeddingDate    string       `json:"weddingDate" validate:"max=10"`

	parsedKind        models.RelativeKind
	parsedSelectedIDs []id.PersonID
}

func (r *AddRelativeRequest) Validate() error {
	kind, err := models.ParseRelativeKind(r.RelationType)
	if err != nil {
		return err
	}
	r.parsedKind = kind
	r.parsedSelectedIDs = make([]id.PersonID, 0, len(r.SelectedIDs))
	for _, raw := range r.SelectedIDs {
		personID, err := id.ParsePersonID(raw)
		if err != nil {
			return err
		}
		r.parsedSelectedIDs = append(r.parsedSelectedIDs, personID)
	}
	return nil
}

// Build returns the engine request anchored at anchorID.
func (r *AddRelativeRequest) Build(anchorID id.PersonID) models.AddRelativeRequest {
	return models.AddRelativeRequest{
		Attributes: r.Person.attributes(),
		Kind:       r.parsedKind,
		AnchorID:   anchorID,
		Options: models.SelectionOptions{
			Mode:        models.SelectionMode(r.SelectedOption),
			SelectedIDs: r.parsedSelectedIDs,
		},
		WeddingDate: r.WeddingDate,
	}
}
