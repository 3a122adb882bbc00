package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: owner, collection or log entry does not exist
//   - ErrConflict: a record with the same key already exists
//   - ErrUnavailable: backing store or lock service cannot be reached
//   - ErrLockHeld: another writer currently holds the owner lock
//
// For validation errors use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
	ErrLockHeld    = errors.New("lock held")
)
