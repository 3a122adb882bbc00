package models

import (
	"slices"

	dErrors "famtree/pkg/domain-errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Filter narrows a history listing. Zero values mean "any".
type Filter struct {
	EntityType string
	Actions    []Action
	Limit      int
}

// Normalize applies the default limit and rejects out-of-range values.
func (f *Filter) Normalize() error {
	if f.Limit < 0 {
		return dErrors.New(dErrors.CodeValidation, "limit must not be negative")
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.EntityType != "" && f.EntityType != EntityTypePerson {
		return dErrors.New(dErrors.CodeValidation, "unknown entity type: "+f.EntityType)
	}
	for _, a := range f.Actions {
		if !a.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown action: "+string(a))
		}
	}
	return nil
}

// Matches reports whether e passes the entity type and action filters.
func (f Filter) Matches(e Entry) bool {
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
		return false
	}
	return true
}

// ActionStrings returns the action filter as plain strings for SQL arrays.
func (f Filter) ActionStrings() []string {
	out := make([]string, len(f.Actions))
	for i, a := range f.Actions {
		out[i] = string(a)
	}
	return out
}
