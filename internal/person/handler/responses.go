package handler

import (
	"famtree/internal/person/models"
	"famtree/internal/person/service"
	"famtree/internal/projection"
)

type UpdatePersonResponse struct {
	Person  projection.PersonView `json:"person"`
	Changes []models.FieldChange  `json:"changes"`
}

type AffectedNeighbourResponse struct {
	PersonID string               `json:"personId"`
	Changes  []models.FieldChange `json:"changes"`
}

type DeletePersonResponse struct {
	DeletedID string                      `json:"deletedId"`
	Affected  []AffectedNeighbourResponse `json:"affected"`
}

type RelationResponse struct {
	Person  projection.PersonView `json:"person"`
	Related projection.PersonView `json:"related"`
	Changed bool                  `json:"changed"`
}

type RelationRemovalResponse struct {
	Person         projection.PersonView `json:"person"`
	Relation       models.RelationType   `json:"relation"`
	RelatedCleared bool                  `json:"relatedCleared"`
}

type AddRelativeResponse struct {
	Person       projection.PersonView   `json:"person"`
	Placeholders []projection.PersonView `json:"placeholders"`
	Touched      []string                `json:"touched"`
}

func toUpdateResponse(res *service.UpdateResult) UpdatePersonResponse {
	changes := res.Changes
	if changes == nil {
		changes = []models.FieldChange{}
	}
	return UpdatePersonResponse{Person: res.Person, Changes: changes}
}

func toDeleteResponse(res *service.DeleteResult) DeletePersonResponse {
	affected := make([]AffectedNeighbourResponse, 0, len(res.Affected))
	for _, a := range res.Affected {
		affected = append(affected, AffectedNeighbourResponse{PersonID: a.PersonID.String(), Changes: a.Changes})
	}
	return DeletePersonResponse{DeletedID: res.Deleted.ID.String(), Affected: affected}
}

func toAddRelativeResponse(res *service.AddRelativeResult) AddRelativeResponse {
	placeholders := res.Placeholders
	if placeholders == nil {
		placeholders = []projection.PersonView{}
	}
	touched := make([]string, 0, len(res.Touched))
	for _, t := range res.Touched {
		touched = append(touched, t.String())
	}
	return AddRelativeResponse{Person: res.Person, Placeholders: placeholders, Touched: touched}
}
