package catalog

import (
	"sort"
	"sync"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// Cache is the indexed in-memory store for active categories. The primary
// map and the unique name index are guarded by one RWMutex. Soft-deleted
// rows never enter the cache, which is what makes the name index unique.
type Cache struct {
	mu     sync.RWMutex
	byID   map[int64]Category
	byName map[string]int64
}

// NewCache creates an empty category cache.
func NewCache() *Cache {
	return &Cache{
		byID:   make(map[int64]Category),
		byName: make(map[string]int64),
	}
}

// Replace swaps the entire cache content for the given records. Deleted rows
// are filtered out; duplicate names keep the last occurrence, mirroring the
// database's partial unique index.
func (c *Cache) Replace(records []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int64]Category, len(records))
	c.byName = make(map[string]int64, len(records))

	for _, rec := range records {
		if rec.ID <= 0 || rec.Deleted {
			continue
		}
		if prev, ok := c.byName[rec.Name]; ok {
			delete(c.byID, prev)
		}
		c.byID[rec.ID] = rec
		c.byName[rec.Name] = rec.ID
	}
}

// Insert adds an active category with a database-assigned identity. It fails
// with ErrInvalidInput when the identity is unassigned or the row is marked
// deleted, and with ErrDuplicate when the identity or name is already taken.
func (c *Cache) Insert(rec Category) (Category, error) {
	if rec.ID <= 0 || rec.Deleted {
		return Category{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[rec.ID]; exists {
		return Category{}, storeerr.ErrDuplicate
	}
	if _, taken := c.byName[rec.Name]; taken {
		return Category{}, storeerr.ErrDuplicate
	}
	c.byID[rec.ID] = rec
	c.byName[rec.Name] = rec.ID
	return rec, nil
}

// Update replaces the stored category. A rename moves the record under its
// new name index key. Fails with ErrNotFound for unknown identities and
// ErrDuplicate when the new name belongs to a different record.
func (c *Cache) Update(rec Category) (Category, error) {
	if rec.ID <= 0 {
		return Category{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.byID[rec.ID]
	if !exists {
		return Category{}, storeerr.ErrNotFound
	}
	if current.Name != rec.Name {
		if owner, taken := c.byName[rec.Name]; taken && owner != rec.ID {
			return Category{}, storeerr.ErrDuplicate
		}
		delete(c.byName, current.Name)
		c.byName[rec.Name] = rec.ID
	}
	c.byID[rec.ID] = rec
	return rec, nil
}

// Remove evicts a category, also used when a row is soft-deleted.
// Fails with ErrNotFound for unknown IDs.
func (c *Cache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, exists := c.byID[id]
	if !exists {
		return storeerr.ErrNotFound
	}
	if c.byName[rec.Name] == id {
		delete(c.byName, rec.Name)
	}
	delete(c.byID, id)
	return nil
}

// GetByID returns the active category with the given identity.
func (c *Cache) GetByID(id int64) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[id]
	return rec, ok
}

// GetByName resolves the unique name index.
func (c *Cache) GetByName(name string) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byName[name]
	if !ok {
		return Category{}, false
	}
	rec, ok := c.byID[id]
	return rec, ok
}

// NameExists reports whether an active category already uses the name.
// Deleted rows are invisible here; a historical check belongs to the store.
func (c *Cache) NameExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byName[name]
	return ok
}

// Search returns active categories matching the predicate, ordered by
// identity. A nil predicate matches everything.
func (c *Cache) Search(match func(Category) bool) []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Category, 0, len(c.byID))
	for _, rec := range c.byID {
		if match == nil || match(rec) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Exists reports whether an active category with the identity is present.
func (c *Cache) Exists(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byID[id]
	return ok
}

// Len returns the number of cached categories.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}
