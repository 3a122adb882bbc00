package handler

import (
	"strings"
	"time"

	"famtree/internal/owner/models"
	dErrors "famtree/pkg/domain-errors"
)

// CreateTreeRequest is the body of POST /trees.
type CreateTreeRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (r *CreateTreeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// PutMemberRequest is the body of PUT /trees/{treeID}/members/{userID}.
type PutMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin editor viewer"`

	parsedRole models.Role
}

func (r *PutMemberRequest) Validate() error {
	role, err := models.ParseRole(r.Role)
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

func (r *PutMemberRequest) ParsedRole() models.Role {
	return r.parsedRole
}

type MemberResponse struct {
	UserID  string    `json:"userId"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

type TreeResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	OwnerUserID string           `json:"ownerUserId"`
	Members     []MemberResponse `json:"members"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toTreeResponse(o *models.Owner) TreeResponse {
	members := make([]MemberResponse, 0, len(o.Members))
	for _, m := range o.Members {
		members = append(members, MemberResponse{
			UserID:  m.UserID.String(),
			Role:    string(m.Role),
			AddedAt: m.AddedAt,
		})
	}
	return TreeResponse{
		ID:          o.Ref.ID.String(),
		Name:        o.Name,
		OwnerUserID: o.OwnerUserID.String(),
		Members:     members,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
