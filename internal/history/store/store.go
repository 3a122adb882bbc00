// Package store persists the append-only change log. Entries are never
// updated or deleted once written.
package store

import (
	"context"

	"famtree/internal/history/models"
	id "famtree/pkg/domain"
)

type Store interface {
	Append(ctx context.Context, e models.Entry) error
	// List returns the owner's entries newest first.
	List(ctx context.Context, owner id.OwnerRef, filter models.Filter) ([]models.Entry, error)
	Get(ctx context.Context, owner id.OwnerRef, logID id.LogID) (*models.Entry, error)
}
