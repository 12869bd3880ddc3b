package repository

import (
	"context"

	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

// Pinger is the readiness check a dependency exposes.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogRepository declares persistence operations shared by every catalog
// entity. Listing goes through FetchSlice only: there is no offset paging and
// no COUNT anywhere in the contract.
type CatalogRepository[T any] interface {
	slice.Store[T]
	Create(ctx context.Context, v T) (T, error)
	// GetByID returns ErrNotFound for missing and soft-deleted rows.
	GetByID(ctx context.Context, id int64) (T, error)
	// Update replaces the writable columns of a live row and stamps
	// updated_at. Identity, created_at and immutable columns are kept.
	Update(ctx context.Context, id int64, v T) (T, error)
	// Delete soft-deletes when the entity has a deleted_at column and removes
	// the row otherwise. Deleting twice yields ErrNotFound.
	Delete(ctx context.Context, id int64) error
}

// StatusRepository moves rows between lifecycle states. SwapStatus succeeds
// only while the row still holds from and returns ErrConflict otherwise, so
// two reviewers racing on one row cannot both win.
type StatusRepository[T any] interface {
	SwapStatus(ctx context.Context, id int64, from, to string) (T, error)
}
