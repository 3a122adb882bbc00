// Package store persists owners and their person collections. One owner
// maps to exactly one collection document.
package store

import (
	"context"

	"famtree/internal/owner/models"
	personmodels "famtree/internal/person/models"
	id "famtree/pkg/domain"
)

// Store is implemented by InMemory and PostgresStore. Errors are
// pkg/platform/sentinel values.
type Store interface {
	CreateOwner(ctx context.Context, o *models.Owner) error
	GetOwner(ctx context.Context, ref id.OwnerRef) (*models.Owner, error)
	UpdateOwner(ctx context.Context, o *models.Owner) error
	ListTreesForUser(ctx context.Context, userID id.UserID) ([]*models.Owner, error)

	LoadCollection(ctx context.Context, ref id.OwnerRef) (*personmodels.Collection, error)
	SaveCollection(ctx context.Context, c *personmodels.Collection) error
}
