package order

import (
	"slices"
	"sync"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// orderProduct is the composite key enforcing one line per product per order.
type orderProduct struct {
	OrderID   int64
	ProductID int64
}

// ItemCache is the indexed in-memory store for order lines. byOrder keeps
// identities in insertion order so line positions survive cache round trips.
type ItemCache struct {
	mu             sync.RWMutex
	byID           map[int64]Item
	byOrder        map[int64][]int64
	byOrderProduct map[orderProduct]int64
}

// NewItemCache creates an empty item cache.
func NewItemCache() *ItemCache {
	return &ItemCache{
		byID:           make(map[int64]Item),
		byOrder:        make(map[int64][]int64),
		byOrderProduct: make(map[orderProduct]int64),
	}
}

// Replace swaps the entire cache content, rebuilding every index.
func (c *ItemCache) Replace(items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int64]Item, len(items))
	c.byOrder = make(map[int64][]int64)
	c.byOrderProduct = make(map[orderProduct]int64, len(items))

	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		if prev, ok := c.byOrderProduct[item.key()]; ok {
			c.remove(prev)
		}
		c.byID[item.ID] = item
		c.index(item)
	}
}

// Insert adds an item with a database-assigned identity. Fails with
// ErrDuplicate when the identity or the order/product pair is taken.
func (c *ItemCache) Insert(item Item) (Item, error) {
	if item.ID <= 0 {
		return Item{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[item.ID]; exists {
		return Item{}, storeerr.ErrDuplicate
	}
	if _, taken := c.byOrderProduct[item.key()]; taken {
		return Item{}, storeerr.ErrDuplicate
	}
	c.byID[item.ID] = item
	c.index(item)
	return item, nil
}

// Update replaces the stored item, repairing the order list and composite
// index when the owning order or the product changed.
func (c *ItemCache) Update(item Item) (Item, error) {
	if item.ID <= 0 {
		return Item{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.byID[item.ID]
	if !exists {
		return Item{}, storeerr.ErrNotFound
	}
	if current.key() != item.key() {
		if owner, taken := c.byOrderProduct[item.key()]; taken && owner != item.ID {
			return Item{}, storeerr.ErrDuplicate
		}
		if current.OrderID == item.OrderID {
			// A product swap on the same order keeps the line's position.
			delete(c.byOrderProduct, current.key())
			c.byOrderProduct[item.key()] = item.ID
		} else {
			c.unindex(current)
			c.index(item)
		}
	}
	c.byID[item.ID] = item
	return item, nil
}

// Remove deletes an item, pruning the order's list when it becomes empty.
func (c *ItemCache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		return storeerr.ErrNotFound
	}
	c.remove(id)
	return nil
}

// SetOrderItems atomically replaces every cached line of one order with the
// given set. Used after a committed merge, where the database already
// enforced all constraints on the new set.
func (c *ItemCache) SetOrderItems(orderID int64, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range c.byOrder[orderID] {
		old, ok := c.byID[id]
		if !ok {
			continue
		}
		delete(c.byOrderProduct, old.key())
		delete(c.byID, id)
	}
	delete(c.byOrder, orderID)

	for _, item := range items {
		if item.ID <= 0 || item.OrderID != orderID {
			continue
		}
		c.byID[item.ID] = item
		c.index(item)
	}
}

// GetByID returns the item with the given identity.
func (c *ItemCache) GetByID(id int64) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byID[id]
	return item, ok
}

// GetByOrder returns the order's items in line order.
func (c *ItemCache) GetByOrder(orderID int64) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.byOrder[orderID]
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, c.byID[id])
	}
	return items
}

// GetByOrderAndProduct resolves the composite key to its single line.
func (c *ItemCache) GetByOrderAndProduct(orderID, productID int64) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byOrderProduct[orderProduct{OrderID: orderID, ProductID: productID}]
	if !ok {
		return Item{}, false
	}
	item, ok := c.byID[id]
	return item, ok
}

// HasItems reports whether the order has any cached lines.
func (c *ItemCache) HasItems(orderID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byOrder[orderID]) > 0
}

// CountByOrder returns the number of lines on the order.
func (c *ItemCache) CountByOrder(orderID int64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byOrder[orderID])
}

// OrderTotal folds the order's line totals on demand; nothing is memoized,
// so the sum always reflects current index contents.
func (c *ItemCache) OrderTotal(orderID int64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, id := range c.byOrder[orderID] {
		total += c.byID[id].TotalPrice
	}
	return total
}

// Len returns the number of cached items.
func (c *ItemCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}

func (item Item) key() orderProduct {
	return orderProduct{OrderID: item.OrderID, ProductID: item.ProductID}
}

func (c *ItemCache) index(item Item) {
	c.byOrder[item.OrderID] = append(c.byOrder[item.OrderID], item.ID)
	c.byOrderProduct[item.key()] = item.ID
}

func (c *ItemCache) remove(id int64) {
	item, ok := c.byID[id]
	if !ok {
		return
	}
	c.unindex(item)
	delete(c.byID, id)
}

func (c *ItemCache) unindex(item Item) {
	ids := c.byOrder[item.OrderID]
	if i := slices.Index(ids, item.ID); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	}
	if len(ids) == 0 {
		delete(c.byOrder, item.OrderID)
	} else {
		c.byOrder[item.OrderID] = ids
	}
	if c.byOrderProduct[item.key()] == item.ID {
		delete(c.byOrderProduct, item.key())
	}
}
