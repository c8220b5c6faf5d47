package customer

import "context"

// Store is the repository contract for customers.
type Store interface {
	// FindByID retrieves a customer regardless of its deletion state.
	// Returns storeerr.ErrNotFound if no row exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Customer, error)

	// FindAllActive returns every non-deleted customer, for cache loads.
	FindAllActive(ctx context.Context) ([]Customer, error)

	// Create persists a new customer. Returns storeerr.ErrDuplicate when the
	// email or phone is taken by an active row.
	Create(ctx context.Context, c Customer) (*Customer, error)

	// Update replaces the mutable fields of an active customer.
	Update(ctx context.Context, c Customer) (*Customer, error)

	// SoftDelete stamps DeletedAt on an active customer.
	// Returns storeerr.ErrNotFound if no active row exists with the given ID.
	SoftDelete(ctx context.Context, id int64) error

	// Restore clears DeletedAt on a deleted customer.
	// Returns storeerr.ErrNotFound if no deleted row exists with the given
	// ID, and storeerr.ErrDuplicate when an active row took the email or
	// phone in the meantime.
	Restore(ctx context.Context, id int64) (*Customer, error)
}
