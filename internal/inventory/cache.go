package inventory

import (
	"sort"
	"sync"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// productLocation is the composite key enforcing one record per pair.
type productLocation struct {
	ProductID  int64
	LocationID int64
}

// Cache is the indexed in-memory store for inventory records. One primary map
// plus three secondary indices, all guarded together by a single RWMutex so
// an update that moves a record between index slots is atomic for readers.
// Callers always receive copies.
type Cache struct {
	mu                sync.RWMutex
	byID              map[int64]Inventory
	byProduct         map[int64]map[int64]struct{}
	byLocation        map[int64]map[int64]struct{}
	byProductLocation map[productLocation]int64
}

// NewCache creates an empty inventory cache.
func NewCache() *Cache {
	return &Cache{
		byID:              make(map[int64]Inventory),
		byProduct:         make(map[int64]map[int64]struct{}),
		byLocation:        make(map[int64]map[int64]struct{}),
		byProductLocation: make(map[productLocation]int64),
	}
}

// Replace swaps the entire cache content for the given records, rebuilding
// every index. Records that would violate the composite-key constraint keep
// the last occurrence, mirroring the database's unique index.
func (c *Cache) Replace(records []Inventory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int64]Inventory, len(records))
	c.byProduct = make(map[int64]map[int64]struct{})
	c.byLocation = make(map[int64]map[int64]struct{})
	c.byProductLocation = make(map[productLocation]int64, len(records))

	for _, rec := range records {
		if rec.ID <= 0 {
			continue
		}
		if prev, ok := c.byProductLocation[rec.key()]; ok {
			c.remove(prev)
		}
		c.byID[rec.ID] = rec
		c.index(rec)
	}
}

// Insert adds a record with a database-assigned identity. It fails with
// ErrInvalidInput when the identity is unassigned, and with ErrDuplicate when
// the identity or the product/location pair is already taken.
func (c *Cache) Insert(rec Inventory) (Inventory, error) {
	if rec.ID <= 0 {
		return Inventory{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[rec.ID]; exists {
		return Inventory{}, storeerr.ErrDuplicate
	}
	if _, taken := c.byProductLocation[rec.key()]; taken {
		return Inventory{}, storeerr.ErrDuplicate
	}
	c.byID[rec.ID] = rec
	c.index(rec)
	return rec, nil
}

// Update replaces the stored record. When the product or location changed,
// the record is removed from its old index slots and re-inserted under the
// new keys; skipping that repair is the classic way to corrupt a store like
// this one. Fails with ErrNotFound for unknown identities and ErrDuplicate
// when the new pair belongs to a different record.
func (c *Cache) Update(rec Inventory) (Inventory, error) {
	if rec.ID <= 0 {
		return Inventory{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.byID[rec.ID]
	if !exists {
		return Inventory{}, storeerr.ErrNotFound
	}
	if current.key() != rec.key() {
		if owner, taken := c.byProductLocation[rec.key()]; taken && owner != rec.ID {
			return Inventory{}, storeerr.ErrDuplicate
		}
		c.unindex(current)
		c.index(rec)
	}
	c.byID[rec.ID] = rec
	return rec, nil
}

// Remove deletes a record from the primary map and every index, pruning
// index buckets that become empty. Fails with ErrNotFound for unknown IDs.
func (c *Cache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		return storeerr.ErrNotFound
	}
	c.remove(id)
	return nil
}

// GetByID returns the record with the given identity.
func (c *Cache) GetByID(id int64) (Inventory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[id]
	return rec, ok
}

// GetByProduct returns every record for the product, ordered by identity.
func (c *Cache) GetByProduct(productID int64) []Inventory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collect(c.byProduct[productID])
}

// GetByLocation returns every record at the location, ordered by identity.
func (c *Cache) GetByLocation(locationID int64) []Inventory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collect(c.byLocation[locationID])
}

// GetByProductAndLocation resolves the composite key to its single record.
func (c *Cache) GetByProductAndLocation(productID, locationID int64) (Inventory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byProductLocation[productLocation{ProductID: productID, LocationID: locationID}]
	if !ok {
		return Inventory{}, false
	}
	rec, ok := c.byID[id]
	return rec, ok
}

// Search returns records matching the predicate, ordered by identity.
// A nil predicate matches everything.
func (c *Cache) Search(match func(Inventory) bool) []Inventory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Inventory, 0, len(c.byID))
	for _, rec := range c.byID {
		if match == nil || match(rec) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Exists reports whether a record with the identity is present.
func (c *Cache) Exists(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byID[id]
	return ok
}

// HasRecordsForProduct reports whether any location stocks the product.
func (c *Cache) HasRecordsForProduct(productID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byProduct[productID]) > 0
}

// HasAvailableStock reports whether the product at the location has at least
// qty units free of reservations.
func (c *Cache) HasAvailableStock(productID, locationID int64, qty int32) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byProductLocation[productLocation{ProductID: productID, LocationID: locationID}]
	if !ok {
		return false
	}
	return c.byID[id].Available() >= qty
}

// TotalStockByProduct folds current stock over every location of the product.
// Computed on demand so it can never drift from the index contents.
func (c *Cache) TotalStockByProduct(productID int64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for id := range c.byProduct[productID] {
		total += int64(c.byID[id].CurrentStock)
	}
	return total
}

// AvailableStockByProduct folds unreserved stock over every location of the product.
func (c *Cache) AvailableStockByProduct(productID int64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for id := range c.byProduct[productID] {
		total += int64(c.byID[id].Available())
	}
	return total
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}

func (rec Inventory) key() productLocation {
	return productLocation{ProductID: rec.ProductID, LocationID: rec.LocationID}
}

// index adds rec to every secondary index. Caller holds the write lock.
func (c *Cache) index(rec Inventory) {
	addToSet(c.byProduct, rec.ProductID, rec.ID)
	addToSet(c.byLocation, rec.LocationID, rec.ID)
	c.byProductLocation[rec.key()] = rec.ID
}

// unindex removes rec from every secondary index, pruning empty buckets.
// Caller holds the write lock.
func (c *Cache) unindex(rec Inventory) {
	removeFromSet(c.byProduct, rec.ProductID, rec.ID)
	removeFromSet(c.byLocation, rec.LocationID, rec.ID)
	if c.byProductLocation[rec.key()] == rec.ID {
		delete(c.byProductLocation, rec.key())
	}
}

// remove drops the record and its index entries. Caller holds the write lock.
func (c *Cache) remove(id int64) {
	rec, ok := c.byID[id]
	if !ok {
		return
	}
	c.unindex(rec)
	delete(c.byID, id)
}

// collect copies the records behind an ID set, ordered by identity.
// Caller holds at least the read lock.
func (c *Cache) collect(ids map[int64]struct{}) []Inventory {
	result := make([]Inventory, 0, len(ids))
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
