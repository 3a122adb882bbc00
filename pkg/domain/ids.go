// Package domain holds typed identifiers and owner references shared across
// modules. Typed ids keep a PersonID from being passed where a LogID is
// expected; parse functions are the trust boundary for external input.
package domain

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "famtree/pkg/domain-errors"
)

type (
	UserID   uuid.UUID
	TreeID   uuid.UUID
	PersonID uuid.UUID
	LogID    uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseTreeID(s string) (TreeID, error) {
	u, err := parseUUID("tree id", s)
	return TreeID(u), err
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID("person id", s)
	return PersonID(u), err
}

func ParseLogID(s string) (LogID, error) {
	u, err := parseUUID("log id", s)
	return LogID(u), err
}

func NewPersonID() PersonID { return PersonID(uuid.New()) }
func NewLogID() LogID       { return LogID(uuid.New()) }
func NewTreeID() TreeID     { return TreeID(uuid.New()) }

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id TreeID) String() string   { return uuid.UUID(id).String() }
func (id PersonID) String() string { return uuid.UUID(id).String() }
func (id LogID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id TreeID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// PersonID is the only id embedded in persisted documents, so it carries its
// own JSON form. The others travel through uuid.UUID at the edges.

func (id PersonID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("parse person id: %w", err)
	}
	*id = PersonID(u)
	return nil
}

func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	*id = UserID(u)
	return nil
}

func (id LogID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *LogID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("parse log id: %w", err)
	}
	*id = LogID(u)
	return nil
}

// OwnerKind distinguishes an individual account collection from a shared tree.
type OwnerKind string

const (
	OwnerKindUser OwnerKind = "user"
	OwnerKindTree OwnerKind = "tree"
)

func (k OwnerKind) IsValid() bool {
	return k == OwnerKindUser || k == OwnerKindTree
}

// OwnerRef scopes a person collection. The graph invariants are identical for
// both kinds; only access control differs.
type OwnerRef struct {
	Kind OwnerKind `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func UserOwner(userID UserID) OwnerRef {
	return OwnerRef{Kind: OwnerKindUser, ID: uuid.UUID(userID)}
}

func TreeOwner(treeID TreeID) OwnerRef {
	return OwnerRef{Kind: OwnerKindTree, ID: uuid.UUID(treeID)}
}

func (o OwnerRef) IsNil() bool {
	return o.ID == uuid.Nil || !o.Kind.IsValid()
}

// String renders the ref as "kind:uuid", the form used for lock keys and
// change-feed record keys.
func (o OwnerRef) String() string {
	return string(o.Kind) + ":" + o.ID.String()
}
