package catalog

import (
	"testing"
	"time"

	"github.com/stockdesk/stockdesk/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cat(id int64, name string) Category {
	return Category{
		ID:        id,
		Name:      name,
		UpdatedAt: time.Now(),
	}
}

func TestCache_Insert(t *testing.T) {
	testCases := []struct {
		name        string
		seed        []Category
		insert      Category
		expectedErr error
	}{
		{
			name:   "Success",
			insert: cat(1, "tools"),
		},
		{
			name:        "Unassigned identity",
			insert:      cat(0, "tools"),
			expectedErr: storeerr.ErrInvalidInput,
		},
		{
			name:        "Deleted row rejected",
			insert:      Category{ID: 1, Name: "tools", Deleted: true},
			expectedErr: storeerr.ErrInvalidInput,
		},
		{
			name:        "Duplicate identity",
			seed:        []Category{cat(1, "tools")},
			insert:      cat(1, "hardware"),
			expectedErr: storeerr.ErrDuplicate,
		},
		{
			name:        "Duplicate name",
			seed:        []Category{cat(1, "tools")},
			insert:      cat(2, "tools"),
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
			got, ok := cache.GetByID(tc.insert.ID)
			require.True(t, ok)
			assert.Equal(t, tc.insert.Name, got.Name)
			assert.True(t, cache.NameExists(tc.insert.Name))
		})
	}
}

func TestCache_Update_RepairsNameIndex(t *testing.T) {
	// given
	cache := NewCache()
	cache.Replace([]Category{cat(1, "tools"), cat(2, "hardware")})

	// when: rename moves the record under a new index key
	renamed := cat(1, "power tools")
	_, err := cache.Update(renamed)

	// then
	require.NoError(t, err)
	assert.False(t, cache.NameExists("tools"), "old name must be released")
	got, ok := cache.GetByName("power tools")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
}

func TestCache_Update_Failures(t *testing.T) {
	cache := NewCache()
	cache.Replace([]Category{cat(1, "tools"), cat(2, "hardware")})

	testCases := []struct {
		name        string
		update      Category
		expectedErr error
	}{
		{
			name:        "Unknown identity",
			update:      cat(99, "misc"),
			expectedErr: storeerr.ErrNotFound,
		},
		{
			name:        "Rename onto taken name",
			update:      cat(1, "hardware"),
			expectedErr: storeerr.ErrDuplicate,
		},
		{
			name:        "Unassigned identity",
			update:      cat(0, "misc"),
			expectedErr: storeerr.ErrInvalidInput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cache.Update(tc.update)
			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestCache_Remove_ReleasesName(t *testing.T) {
	// given
	cache := NewCache()
	cache.Replace([]Category{cat(1, "tools")})

	// when
	require.NoError(t, cache.Remove(1))

	// then: the name is free for a new record
	assert.False(t, cache.NameExists("tools"))
	_, err := cache.Insert(cat(2, "tools"))
	require.NoError(t, err)

	require.ErrorIs(t, cache.Remove(99), storeerr.ErrNotFound)
}

func TestCache_Replace_FiltersDeleted(t *testing.T) {
	// given
	now := time.Now()
	deleted := cat(2, "retired")
	deleted.Deleted = true
	deleted.DeletedAt = &now

	// when
	cache := NewCache()
	cache.Replace([]Category{cat(1, "tools"), deleted})

	// then
	assert.Equal(t, 1, cache.Len())
	assert.False(t, cache.Exists(2))
	assert.False(t, cache.NameExists("retired"),
		"a deleted row must not occupy the name index")
}

func TestCache_Search(t *testing.T) {
	cache := NewCache()
	cache.Replace([]Category{cat(3, "tools"), cat(1, "hardware"), cat(2, "garden")})

	all := cache.Search(nil)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID, "results are ordered by identity")

	withG := cache.Search(func(c Category) bool { return c.Name[0] == 'g' })
	require.Len(t, withG, 1)
	assert.Equal(t, "garden", withG[0].Name)
}
