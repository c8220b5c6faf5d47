package customer

import (
	"testing"
	"time"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cust(id int64, email, phone string) Customer {
	return Customer{
		ID:        id,
		Name:      "Customer",
		Email:     email,
		Phone:     phone,
		UpdatedAt: time.Now(),
	}
}

func TestCache_Insert(t *testing.T) {
	testCases := []struct {
		name        string
		seed        []Customer
		insert      Customer
		expectedErr error
	}{
		{
			name:   "Success",
			insert: cust(1, "a@x.dev", "+111"),
		},
		{
			name:        "Unassigned identity",
			insert:      cust(0, "a@x.dev", "+111"),
			expectedErr: storeerr.ErrInvalidInput,
		},
		{
			name:        "Duplicate email",
			seed:        []Customer{cust(1, "a@x.dev", "+111")},
			insert:      cust(2, "a@x.dev", "+222"),
			expectedErr: storeerr.ErrDuplicate,
		},
		{
			name:        "Duplicate phone",
			seed:        []Customer{cust(1, "a@x.dev", "+111")},
			insert:      cust(2, "b@x.dev", "+111"),
			expectedErr: storeerr.ErrDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cache := NewCache()
			cache.Replace(tc.seed)

			// when
			_, err := cache.Insert(tc.insert)

			// then
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, cache.EmailExists(tc.insert.Email))
			assert.True(t, cache.PhoneExists(tc.insert.Phone))
		})
	}
}

func TestCache_Update_RepairsBothIndexes(t *testing.T) {
	// given
	cache := NewCache()
	cache.Replace([]Customer{cust(1, "a@x.dev", "+111")})

	// when: both contact keys change at once
	moved := cust(1, "new@x.dev", "+999")
	_, err := cache.Update(moved)

	// then
	require.NoError(t, err)
	assert.False(t, cache.EmailExists("a@x.dev"), "old email must be released")
	assert.False(t, cache.PhoneExists("+111"), "old phone must be released")
	got, ok := cache.GetByEmail("new@x.dev")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
	got, ok = cache.GetByPhone("+999")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
}

func TestCache_Update_RejectsTakenKeys(t *testing.T) {
	cache := NewCache()
	cache.Replace([]Customer{
		cust(1, "a@x.dev", "+111"),
		cust(2, "b@x.dev", "+222"),
	})

	testCases := []struct {
		name   string
		update Customer
	}{
		{name: "Email of another record", update: cust(1, "b@x.dev", "+111")},
		{name: "Phone of another record", update: cust(1, "a@x.dev", "+222")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cache.Update(tc.update)
			require.ErrorIs(t, err, storeerr.ErrDuplicate)

			// the failed update must not leave partial index state
			got, ok := cache.GetByEmail("a@x.dev")
			require.True(t, ok)
			assert.Equal(t, int64(1), got.ID)
			got, ok = cache.GetByPhone("+111")
			require.True(t, ok)
			assert.Equal(t, int64(1), got.ID)
		})
	}
}

func TestCache_Remove_ReleasesContactKeys(t *testing.T) {
	// given
	cache := NewCache()
	cache.Replace([]Customer{cust(1, "a@x.dev", "+111")})

	// when
	require.NoError(t, cache.Remove(1))

	// then
	assert.False(t, cache.EmailExists("a@x.dev"))
	assert.False(t, cache.PhoneExists("+111"))
	_, err := cache.Insert(cust(2, "a@x.dev", "+111"))
	require.NoError(t, err)
}

func TestCache_Replace_FiltersDeleted(t *testing.T) {
	now := time.Now()
	deleted := cust(2, "gone@x.dev", "+222")
	deleted.Deleted = true
	deleted.DeletedAt = &now

	cache := NewCache()
	cache.Replace([]Customer{cust(1, "a@x.dev", "+111"), deleted})

	assert.Equal(t, 1, cache.Len())
	assert.False(t, cache.EmailExists("gone@x.dev"))
	assert.False(t, cache.PhoneExists("+222"))
}
