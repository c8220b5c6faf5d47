// Package catalog implements product categories with soft deletion. The
// cache holds the active set only; deleted rows live in the database until
// restored.
package catalog

import "time"

// Category is a product grouping. Name is unique among active rows; a
// deleted row keeps its name so it can be restored later.
type Category struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Deleted     bool
	DeletedAt   *time.Time
}
