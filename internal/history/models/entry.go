package models

import (
	"time"

	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// Action is the kind of mutation an entry records.
type Action string

const (
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionRestore        Action = "restore"
	ActionAddRelation    Action = "add_relation"
	ActionRemoveRelation Action = "remove_relation"
)

var allActions = []Action{
	ActionCreate,
	ActionUpdate,
	ActionDelete,
	ActionRestore,
	ActionAddRelation,
	ActionRemoveRelation,
}

func (a Action) IsValid() bool {
	for _, v := range allActions {
		if v == a {
			return true
		}
	}
	return false
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown action: "+s)
	}
	return a, nil
}

// EntityTypePerson is the only entity type the graph engine logs today.
const EntityTypePerson = "Person"

// RelatedEntity references a neighbour touched by the logged mutation. Field
// names the relation set modified on that neighbour; Snapshot is the
// neighbour's image at the time of the mutation (pre-image for removals,
// post-image for additions).
type RelatedEntity struct {
	EntityID   id.PersonID          `json:"entityId"`
	EntityType string               `json:"entityType"`
	Field      string               `json:"field,omitempty"`
	Snapshot   *personmodels.Person `json:"snapshot,omitempty"`
}

// Entry is one immutable change-log row. Entries are built from a Record by
// NewEntry and turned back into one by Decode.
type Entry struct {
	ID              id.LogID                   `json:"id"`
	Owner           id.OwnerRef                `json:"owner"`
	UserID          id.UserID                  `json:"userId"`
	EntityID        id.PersonID                `json:"entityId"`
	EntityType      string                     `json:"entityType"`
	Action          Action                     `json:"action"`
	Timestamp       time.Time                  `json:"timestamp"`
	Snapshot        *personmodels.Person       `json:"snapshot,omitempty"`
	Changes         []personmodels.FieldChange `json:"changes,omitempty"`
	RelatedEntities []RelatedEntity            `json:"relatedEntities,omitempty"`
}

// NewEntry stamps rec with identity, owner, actor and time.
func NewEntry(logID id.LogID, owner id.OwnerRef, actor id.UserID, at time.Time, rec Record) Entry {
	e := Entry{
		ID:         logID,
		Owner:      owner,
		UserID:     actor,
		EntityID:   rec.EntityID(),
		EntityType: EntityTypePerson,
		Action:     rec.Action(),
		Timestamp:  at,
	}
	rec.encode(&e)
	return e
}
