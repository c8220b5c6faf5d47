package order

import (
	"sort"
	"sync"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// Cache is the indexed in-memory store for orders. A single RWMutex guards
// the primary map and both secondary indices together.
type Cache struct {
	mu         sync.RWMutex
	byID       map[int64]Order
	byCustomer map[int64]map[int64]struct{}
	byStatus   map[string]map[int64]struct{}
}

// NewCache creates an empty order cache.
func NewCache() *Cache {
	return &Cache{
		byID:       make(map[int64]Order),
		byCustomer: make(map[int64]map[int64]struct{}),
		byStatus:   make(map[string]map[int64]struct{}),
	}
}

// Replace swaps the entire cache content, rebuilding every index.
func (c *Cache) Replace(orders []Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int64]Order, len(orders))
	c.byCustomer = make(map[int64]map[int64]struct{})
	c.byStatus = make(map[string]map[int64]struct{})

	for _, o := range orders {
		if o.ID <= 0 {
			continue
		}
		c.byID[o.ID] = o
		c.index(o)
	}
}

// Insert adds an order with a database-assigned identity.
func (c *Cache) Insert(o Order) (Order, error) {
	if o.ID <= 0 {
		return Order{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[o.ID]; exists {
		return Order{}, storeerr.ErrDuplicate
	}
	c.byID[o.ID] = o
	c.index(o)
	return o, nil
}

// Update replaces the stored order, moving it between index slots when the
// customer or status changed.
func (c *Cache) Update(o Order) (Order, error) {
	if o.ID <= 0 {
		return Order{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.byID[o.ID]
	if !exists {
		return Order{}, storeerr.ErrNotFound
	}
	if current.CustomerID != o.CustomerID || current.Status != o.Status {
		c.unindex(current)
		c.index(o)
	}
	c.byID[o.ID] = o
	return o, nil
}

// Remove deletes an order from the primary map and every index.
func (c *Cache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, exists := c.byID[id]
	if !exists {
		return storeerr.ErrNotFound
	}
	c.unindex(o)
	delete(c.byID, id)
	return nil
}

// GetByID returns the order with the given identity.
func (c *Cache) GetByID(id int64) (Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.byID[id]
	return o, ok
}

// All returns every cached order, ordered by identity.
func (c *Cache) All() []Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Order, 0, len(c.byID))
	for _, o := range c.byID {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetByCustomer returns all orders of the customer, ordered by identity.
func (c *Cache) GetByCustomer(customerID int64) []Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collect(c.byCustomer[customerID])
}

// GetByStatus returns all orders in the status, ordered by identity.
func (c *Cache) GetByStatus(status string) []Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collect(c.byStatus[status])
}

// HasOrders reports whether the customer has any cached orders.
func (c *Cache) HasOrders(customerID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byCustomer[customerID]) > 0
}

// Exists reports whether an order with the identity is present.
func (c *Cache) Exists(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byID[id]
	return ok
}

// Len returns the number of cached orders.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}

func (c *Cache) index(o Order) {
	addToSet(c.byCustomer, o.CustomerID, o.ID)
	addStatus(c.byStatus, o.Status, o.ID)
}

func (c *Cache) unindex(o Order) {
	removeFromSet(c.byCustomer, o.CustomerID, o.ID)
	removeStatus(c.byStatus, o.Status, o.ID)
}

func (c *Cache) collect(ids map[int64]struct{}) []Order {
	result := make([]Order, 0, len(ids))
	for id := range ids {
		result = append(result, c.byID[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func addToSet(index map[int64]map[int64]struct{}, key, id int64) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[int64]struct{})
		index[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removeFromSet(index map[int64]map[int64]struct{}, key, id int64) {
	bucket, ok := index[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(index, key)
	}
}

func addStatus(index map[string]map[int64]struct{}, key string, id int64) {
	bucket, ok := index[key]
	if !ok {
		bucket = make(map[int64]struct{})
		index[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removeStatus(index map[string]map[int64]struct{}, key string, id int64) {
	bucket, ok := index[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(index, key)
	}
}
