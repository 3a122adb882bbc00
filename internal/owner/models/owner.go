package models

import (
	"slices"
	"strings"
	"time"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// Role is a member's permission level on a shared tree.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "role must be one of owner, admin, editor, viewer")
}

// Access is the kind of operation a caller wants to perform on an owner.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessManage
)

func (a Access) String() string {
	switch a {
	case AccessWrite:
		return "write"
	case AccessManage:
		return "manage"
	}
	return "read"
}

// Allows reports whether r grants a.
func (r Role) Allows(a Access) bool {
	switch a {
	case AccessRead:
		return r != ""
	case AccessWrite:
		return r == RoleOwner || r == RoleAdmin || r == RoleEditor
	case AccessManage:
		return r == RoleOwner || r == RoleAdmin
	}
	return false
}

type Member struct {
	UserID  id.UserID `json:"userId"`
	Role    Role      `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

// Owner is the holder of one person collection: either a single account or
// a shared tree with members.
type Owner struct {
	Ref         id.OwnerRef
	Name        string
	OwnerUserID id.UserID
	Members     []Member
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const maxTreeNameLength = 200

// NewUserOwner registers an account's private collection. The account is its
// only member.
func NewUserOwner(userID id.UserID, now time.Time) *Owner {
	return &Owner{
		Ref:         id.UserOwner(userID),
		OwnerUserID: userID,
		Members:     []Member{{UserID: userID, Role: RoleOwner, AddedAt: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewTree(treeID id.TreeID, name string, ownerUserID id.UserID, now time.Time) (*Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tree name is required")
	}
	if len(name) > maxTreeNameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "tree name is too long")
	}
	if ownerUserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tree owner is required")
	}
	return &Owner{
		Ref:         id.TreeOwner(treeID),
		Name:        name,
		OwnerUserID: ownerUserID,
		Members:     []Member{{UserID: ownerUserID, Role: RoleOwner, AddedAt: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (o *Owner) RoleOf(userID id.UserID) (Role, bool) {
	for _, m := range o.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// Can reports whether userID may perform a on this owner.
func (o *Owner) Can(userID id.UserID, a Access) bool {
	role, ok := o.RoleOf(userID)
	return ok && role.Allows(a)
}

// PutMember adds or re-roles a member. The tree owner's role is fixed and
// ownership cannot be granted.
func (o *Owner) PutMember(userID id.UserID, role Role, now time.Time) error {
	if o.Ref.Kind != id.OwnerKindTree {
		return dErrors.New(dErrors.CodeValidation, "only shared trees have members")
	}
	if role == RoleOwner {
		return dErrors.New(dErrors.CodeValidation, "ownership cannot be granted")
	}
	if userID == o.OwnerUserID {
		return dErrors.New(dErrors.CodeConflict, "the tree owner's role cannot change")
	}
	for i := range o.Members {
		if o.Members[i].UserID == userID {
			o.Members[i].Role = role
			o.UpdatedAt = now
			return nil
		}
	}
	o.Members = append(o.Members, Member{UserID: userID, Role: role, AddedAt: now})
	o.UpdatedAt = now
	return nil
}

func (o *Owner) RemoveMember(userID id.UserID, now time.Time) error {
	if userID == o.OwnerUserID {
		return dErrors.New(dErrors.CodeConflict, "the tree owner cannot be removed")
	}
	before := len(o.Members)
	o.Members = slices.DeleteFunc(o.Members, func(m Member) bool { return m.UserID == userID })
	if len(o.Members) == before {
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	o.UpdatedAt = now
	return nil
}

// Clone deep-copies the owner so stores never hand out shared slices.
func (o *Owner) Clone() *Owner {
	c := *o
	c.Members = slices.Clone(o.Members)
	return &c
}
