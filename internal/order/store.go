package order

import "context"

// Store is the repository contract for orders and their lines. Writes that
// touch an order together with its items run inside one database transaction;
// there is no partial application.
type Store interface {
	// FindByID retrieves an order and its items in one consistent read.
	// Returns storeerr.ErrNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Order, []Item, error)

	// FindAll returns every order and every item, for cache loads.
	FindAll(ctx context.Context) ([]Order, []Item, error)

	// FindByCustomer returns the customer's orders.
	FindByCustomer(ctx context.Context, customerID int64) ([]Order, error)

	// Create persists an order and its initial items atomically.
	Create(ctx context.Context, o Order, items []Item) (*Order, []Item, error)

	// UpdateWithItems updates the order row and reconciles its committed
	// items against the desired list with the minimal insert/update/delete
	// set, all inside one transaction. Returns the committed order and the
	// full merged item set.
	UpdateWithItems(ctx context.Context, o Order, desired []Item) (*Order, []Item, error)

	// Delete removes an order and its items atomically.
	// Returns storeerr.ErrNotFound if no order exists with the given ID.
	Delete(ctx context.Context, id int64) error
}
