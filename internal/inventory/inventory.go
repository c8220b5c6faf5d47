// Package inventory implements stock records: one row per product/location
// pair, an indexed in-memory cache over the active set, and the read/write
// service the transport layer consumes.
package inventory

import "time"

// Inventory is a stock record for one product at one location. Values are
// replaced wholesale on update, never mutated field by field.
type Inventory struct {
	ID            int64
	ProductID     int64
	LocationID    int64
	CurrentStock  int32
	ReservedStock int32
	UpdatedAt     time.Time
}

// Available returns the stock not held by reservations.
func (i Inventory) Available() int32 {
	return i.CurrentStock - i.ReservedStock
}
