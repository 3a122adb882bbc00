package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	dErrors "famtree/pkg/domain-errors"
)

// Patch is a partial update keyed by JSON field name. A null value clears
// the field.
type Patch map[string]json.RawMessage

// FieldChange is one entry of an update delta. Values are the serialized
// field values; a missing value is JSON null.
type FieldChange struct {
	Field    string          `json:"field"`
	OldValue json.RawMessage `json:"oldValue"`
	NewValue json.RawMessage `json:"newValue"`
}

var nullValue = json.RawMessage("null")

var patchableFields = map[string]struct{}{
	"gender":      {},
	"firstName":   {},
	"middleName":  {},
	"lastName":    {},
	"maidenName":  {},
	"birthDate":   {},
	"deathDate":   {},
	"birthPlace":  {},
	"deathPlace":  {},
	"burialPlace": {},
	"status":      {},
	"photoPath":   {},
}

// IsPatchableField reports whether a field may be changed through a patch.
// Relation sets, ids and timestamps are not.
func IsPatchableField(name string) bool {
	_, ok := patchableFields[name]
	return ok
}

// Keys returns the patch keys sorted, giving deltas a stable order.
func (p Patch) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

func (p Patch) Validate() error {
	if len(p) == 0 {
		return nil
	}
	for _, k := range p.Keys() {
		if !IsPatchableField(k) {
			return dErrors.New(dErrors.CodeValidation, "field cannot be updated: "+k)
		}
	}
	return nil
}

// ApplyPatch merges patch into a copy of person field by field and returns
// the merged person and the minimal delta: every patch key whose serialized
// value actually changed. The input person is not modified.
func ApplyPatch(person *Person, patch Patch) (*Person, []FieldChange, error) {
	if err := patch.Validate(); err != nil {
		return nil, nil, err
	}
	before, err := fieldValues(person)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode person")
	}

	merged := maps.Clone(before)
	for k, v := range patch {
		if isNull(v) {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid patch value")
	}
	var next Person
	if err := json.Unmarshal(raw, &next); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid patch value")
	}

	out := person.Clone()
	attrs := next.Attributes()
	attrs.Normalize()
	if err := attrs.Validate(); err != nil {
		return nil, nil, err
	}
	out.setAttributes(attrs)

	after, err := fieldValues(out)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode person")
	}
	changes := make([]FieldChange, 0, len(patch))
	for _, k := range patch.Keys() {
		oldV, newV := valueOrNull(before, k), valueOrNull(after, k)
		if bytes.Equal(oldV, newV) {
			continue
		}
		changes = append(changes, FieldChange{Field: k, OldValue: oldV, NewValue: newV})
	}
	return out, changes, nil
}

// FieldValue returns the serialized value of one field, or null.
func FieldValue(p *Person, field string) (json.RawMessage, error) {
	values, err := fieldValues(p)
	if err != nil {
		return nil, err
	}
	return valueOrNull(values, field), nil
}

func fieldValues(p *Person) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func valueOrNull(m map[string]json.RawMessage, k string) json.RawMessage {
	if v, ok := m[k]; ok {
		return v
	}
	return nullValue
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), nullValue)
}
