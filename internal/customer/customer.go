// Package customer implements customer records with soft deletion. Email and
// phone are each unique among active rows; the cache indexes both.
package customer

import "time"

// Customer is a buyer record. A deleted row keeps its email and phone so a
// restore can bring them back, subject to the active-uniqueness rules.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
	DeletedAt *time.Time
}
