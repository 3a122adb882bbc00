package models

import (
	"strings"

	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
)

// RelativeKind is the role a newly added person takes relative to an
// existing anchor person.
type RelativeKind string

const (
	RelativeFather   RelativeKind = "father"
	RelativeMother   RelativeKind = "mother"
	RelativeSibling  RelativeKind = "sibling"
	RelativeSon      RelativeKind = "son"
	RelativeDaughter RelativeKind = "daughter"
	RelativePartner  RelativeKind = "partner"
)

func ParseRelativeKind(s string) (RelativeKind, error) {
	k := RelativeKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case RelativeFather, RelativeMother, RelativeSibling, RelativeSon, RelativeDaughter, RelativePartner:
		return k, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidRelationType, "invalid relative type: "+s)
}

// SelectionMode controls which existing relatives a compound add links to.
type SelectionMode string

const (
	// SelectDefault applies the relative kind's own default.
	SelectDefault  SelectionMode = ""
	SelectAll      SelectionMode = "all"
	SelectNone     SelectionMode = "none"
	SelectSelected SelectionMode = "selected"
)

func (m SelectionMode) IsValid() bool {
	switch m {
	case SelectDefault, SelectAll, SelectNone, SelectSelected:
		return true
	}
	return false
}

// SelectionOptions narrows the fan-out of a compound add.
type SelectionOptions struct {
	Mode        SelectionMode
	SelectedIDs []id.PersonID
}

// AddRelativeRequest creates a person and wires it to Anchor in one
// mutation.
type AddRelativeRequest struct {
	Attributes  Attributes
	Kind        RelativeKind
	AnchorID    id.PersonID
	Options     SelectionOptions
	WeddingDate string
}

func (r AddRelativeRequest) Validate() error {
	if r.AnchorID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "anchor person is required")
	}
	if !r.Options.Mode.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "selectedOption must be all, none or selected")
	}
	if r.Options.Mode != SelectSelected && len(r.Options.SelectedIDs) > 0 {
		return dErrors.New(dErrors.CodeValidation, "selectedIds requires selectedOption=selected")
	}
	if r.WeddingDate != "" && r.Kind != RelativePartner {
		return dErrors.New(dErrors.CodeValidation, "weddingDate only applies to partners")
	}
	if !ValidWeddingDate(r.WeddingDate) {
		return dErrors.New(dErrors.CodeValidation, "weddingDate must use YYYY-MM-DD")
	}
	return nil
}
