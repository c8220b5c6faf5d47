package catalog

import "context"

// Store is the repository contract for categories. Soft deletion keeps the
// row; FindAllActive is what the cache loads from.
type Store interface {
	// FindByID retrieves a category regardless of its deletion state.
	// Returns storeerr.ErrNotFound if no row exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Category, error)

	// FindAllActive returns every non-deleted category, for cache loads.
	FindAllActive(ctx context.Context) ([]Category, error)

	// Create persists a new category.
	// Returns storeerr.ErrDuplicate when the name is taken by an active row.
	Create(ctx context.Context, c Category) (*Category, error)

	// Update replaces name and description of an active category.
	Update(ctx context.Context, c Category) (*Category, error)

	// SoftDelete stamps DeletedAt on an active category.
	// Returns storeerr.ErrNotFound if no active row exists with the given ID.
	SoftDelete(ctx context.Context, id int64) error

	// Restore clears DeletedAt on a deleted category.
	// Returns storeerr.ErrNotFound if no deleted row exists with the given
	// ID, and storeerr.ErrDuplicate when an active row took the name in the
	// meantime.
	Restore(ctx context.Context, id int64) (*Category, error)
}
