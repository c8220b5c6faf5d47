package inventory

import "context"

// Store is the repository contract for inventory records. The database is the
// system of record; the cache is rebuilt from FindAll.
type Store interface {
	// FindByID retrieves a single record by its identity.
	// Returns storeerr.ErrNotFound if no record exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Inventory, error)

	// FindAll returns every inventory record.
	FindAll(ctx context.Context) ([]Inventory, error)

	// FindByProduct returns the records for one product across all locations.
	FindByProduct(ctx context.Context, productID int64) ([]Inventory, error)

	// Create persists a new record and returns it with its assigned identity.
	// Returns storeerr.ErrDuplicate when the product/location pair is taken.
	Create(ctx context.Context, rec Inventory) (*Inventory, error)

	// Update replaces an existing record.
	// Returns storeerr.ErrNotFound if no record exists with the given ID.
	Update(ctx context.Context, rec Inventory) (*Inventory, error)

	// AdjustStock applies a signed delta to current_stock as one conditional
	// relative update, so concurrent writers never clobber each other.
	// Returns storeerr.ErrNotFound for an unknown ID and ErrInsufficientStock
	// when the delta would drop current below zero or below reservations.
	AdjustStock(ctx context.Context, id int64, delta int32) (*Inventory, error)

	// ReserveStock atomically moves qty units into reserved_stock.
	// Returns storeerr.ErrNotFound for an unknown ID and ErrInsufficientStock
	// when fewer than qty units are free of reservations.
	ReserveStock(ctx context.Context, id int64, qty int32) (*Inventory, error)

	// ReleaseStock atomically returns qty reserved units to the free pool.
	// Returns storeerr.ErrNotFound for an unknown ID and
	// storeerr.ErrInvalidInput when fewer than qty units are reserved.
	ReleaseStock(ctx context.Context, id int64, qty int32) (*Inventory, error)

	// Delete removes a record by its identity.
	// Returns storeerr.ErrNotFound if no record exists with the given ID.
	Delete(ctx context.Context, id int64) error

	// ExistsByProductAndLocation checks the composite key against the full
	// table, unlike the cache check which is scoped to cached contents.
	ExistsByProductAndLocation(ctx context.Context, productID, locationID int64) (bool, error)
}
