// Package order implements orders and their line items: indexed caches over
// both, and the transactional diff-merge path that reconciles an order's
// item set in a single database transaction.
package order

import "time"

// Order statuses.
const (
	StatusNew       = "new"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusCancelled = "cancelled"
)

// Order is the parent entity. Its monetary total is never stored; it is
// folded from the item cache on demand.
type Order struct {
	ID         int64
	CustomerID int64
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item is one order line. TotalPrice is authoritative once validated; when a
// caller leaves it unset it is derived as Quantity * UnitPrice. Prices are in
// cents. At most one item per (OrderID, ProductID) pair.
type Item struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	Quantity   int32
	UnitPrice  int64
	TotalPrice int64
}
