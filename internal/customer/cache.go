package customer

import (
	"sort"
	"sync"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// Cache is the indexed in-memory store for active customers. The primary map
// and the two unique indexes are guarded by one RWMutex; an update that
// changes email or phone repairs both indexes under the same lock.
type Cache struct {
	mu      sync.RWMutex
	byID    map[int64]Customer
	byEmail map[string]int64
	byPhone map[string]int64
}

// NewCache creates an empty customer cache.
func NewCache() *Cache {
	return &Cache{
		byID:    make(map[int64]Customer),
		byEmail: make(map[string]int64),
		byPhone: make(map[string]int64),
	}
}

// Replace swaps the entire cache content for the given records. Deleted rows
// are filtered out; duplicate contact keys keep the last occurrence,
// mirroring the database's partial unique indexes.
func (c *Cache) Replace(records []Customer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int64]Customer, len(records))
	c.byEmail = make(map[string]int64, len(records))
	c.byPhone = make(map[string]int64, len(records))

	for _, rec := range records {
		if rec.ID <= 0 || rec.Deleted {
			continue
		}
		if prev, ok := c.byEmail[rec.Email]; ok {
			c.remove(prev)
		}
		if prev, ok := c.byPhone[rec.Phone]; ok {
			c.remove(prev)
		}
		c.byID[rec.ID] = rec
		c.byEmail[rec.Email] = rec.ID
		c.byPhone[rec.Phone] = rec.ID
	}
}

// Insert adds an active customer with a database-assigned identity. It fails
// with ErrInvalidInput when the identity is unassigned or the row is marked
// deleted, and with ErrDuplicate when the identity, email or phone is taken.
func (c *Cache) Insert(rec Customer) (Customer, error) {
	if rec.ID <= 0 || rec.Deleted {
		return Customer{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[rec.ID]; exists {
		return Customer{}, storeerr.ErrDuplicate
	}
	if _, taken := c.byEmail[rec.Email]; taken {
		return Customer{}, storeerr.ErrDuplicate
	}
	if _, taken := c.byPhone[rec.Phone]; taken {
		return Customer{}, storeerr.ErrDuplicate
	}
	c.byID[rec.ID] = rec
	c.byEmail[rec.Email] = rec.ID
	c.byPhone[rec.Phone] = rec.ID
	return rec, nil
}

// Update replaces the stored customer, moving it under new email or phone
// index keys when those changed. Fails with ErrNotFound for unknown
// identities and ErrDuplicate when a new key belongs to a different record.
func (c *Cache) Update(rec Customer) (Customer, error) {
	if rec.ID <= 0 {
		return Customer{}, storeerr.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.byID[rec.ID]
	if !exists {
		return Customer{}, storeerr.ErrNotFound
	}
	if owner, taken := c.byEmail[rec.Email]; taken && owner != rec.ID {
		return Customer{}, storeerr.ErrDuplicate
	}
	if owner, taken := c.byPhone[rec.Phone]; taken && owner != rec.ID {
		return Customer{}, storeerr.ErrDuplicate
	}
	if current.Email != rec.Email {
		delete(c.byEmail, current.Email)
		c.byEmail[rec.Email] = rec.ID
	}
	if current.Phone != rec.Phone {
		delete(c.byPhone, current.Phone)
		c.byPhone[rec.Phone] = rec.ID
	}
	c.byID[rec.ID] = rec
	return rec, nil
}

// Remove evicts a customer, also used when a row is soft-deleted.
// Fails with ErrNotFound for unknown IDs.
func (c *Cache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; !exists {
		return storeerr.ErrNotFound
	}
	c.remove(id)
	return nil
}

// GetByID returns the active customer with the given identity.
func (c *Cache) GetByID(id int64) (Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.byID[id]
	return rec, ok
}

// GetByEmail resolves the unique email index.
func (c *Cache) GetByEmail(email string) (Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byEmail[email]
	if !ok {
		return Customer{}, false
	}
	rec, ok := c.byID[id]
	return rec, ok
}

// GetByPhone resolves the unique phone index.
func (c *Cache) GetByPhone(phone string) (Customer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byPhone[phone]
	if !ok {
		return Customer{}, false
	}
	rec, ok := c.byID[id]
	return rec, ok
}

// EmailExists reports whether an active customer already uses the email.
// Deleted rows are invisible here; a historical check belongs to the store.
func (c *Cache) EmailExists(email string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byEmail[email]
	return ok
}

// PhoneExists reports whether an active customer already uses the phone.
func (c *Cache) PhoneExists(phone string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byPhone[phone]
	return ok
}

// Search returns active customers matching the predicate, ordered by
// identity. A nil predicate matches everything.
func (c *Cache) Search(match func(Customer) bool) []Customer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Customer, 0, len(c.byID))
	for _, rec := range c.byID {
		if match == nil || match(rec) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Exists reports whether an active customer with the identity is present.
func (c *Cache) Exists(id int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.byID[id]
	return ok
}

// Len returns the number of cached customers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}

// remove drops the record and its index entries. Caller holds the write lock.
func (c *Cache) remove(id int64) {
	rec, ok := c.byID[id]
	if !ok {
		return
	}
	if c.byEmail[rec.Email] == id {
		delete(c.byEmail, rec.Email)
	}
	if c.byPhone[rec.Phone] == id {
		delete(c.byPhone, rec.Phone)
	}
	delete(c.byID, id)
}
