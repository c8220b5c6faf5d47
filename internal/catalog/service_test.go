package catalog

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stockdesk/stockdesk/pkg/refresh"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a hand-rolled Store with canned responses. found backs the
// read path, rec the write path.
type mockStore struct {
	all      []Category
	found    *Category
	rec      *Category
	err      error
	deleted  []int64
	restored []int64
}

func (m *mockStore) FindByID(_ context.Context, _ int64) (*Category, error) {
	return m.found, m.err
}

func (m *mockStore) FindAllActive(_ context.Context) ([]Category, error) {
	return m.all, m.err
}

func (m *mockStore) Create(_ context.Context, _ Category) (*Category, error) {
	return m.rec, m.err
}

func (m *mockStore) Update(_ context.Context, _ Category) (*Category, error) {
	return m.rec, m.err
}

func (m *mockStore) SoftDelete(_ context.Context, id int64) error {
	if m.err == nil {
		m.deleted = append(m.deleted, id)
	}
	return m.err
}

func (m *mockStore) Restore(_ context.Context, id int64) (*Category, error) {
	if m.err == nil {
		m.restored = append(m.restored, id)
	}
	return m.rec, m.err
}

func newTestService(t *testing.T, store *mockStore) (*Service, *refresh.Runner) {
	t.Helper()
	runner := refresh.NewRunner(slog.New(slog.DiscardHandler), time.Second)
	return NewService(store, runner, slog.New(slog.DiscardHandler)), runner
}

func Test_Service_Warmup_PopulatesCache(t *testing.T) {
	store := &mockStore{all: []Category{cat(1, "tools"), cat(2, "hardware")}}
	svc, _ := newTestService(t, store)

	require.NoError(t, svc.Warmup(context.Background()))

	assert.Len(t, svc.List(), 2)
	assert.True(t, svc.NameExists("tools"))
}

func Test_Service_GetByID_FallsBackToStoreOnMiss(t *testing.T) {
	now := time.Now()
	fallback := cat(7, "retired")
	fallback.Deleted = true
	fallback.DeletedAt = &now
	store := &mockStore{found: &fallback}
	svc, _ := newTestService(t, store)

	// A soft-deleted category is never cached, so the read goes through.
	got, err := svc.GetByID(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.NotEmpty(t, got.DeletedAt)
	assert.False(t, svc.NameExists("retired"), "fallback reads must not populate the cache")
}

func Test_Service_Create(t *testing.T) {
	testCases := []struct {
		name        string
		seed        []Category
		store       *mockStore
		dto         CategoryCreateDto
		expectedErr error
	}{
		{
			name:  "Success is reflected in the cache",
			store: &mockStore{rec: ptr(cat(3, "garden"))},
			dto:   CategoryCreateDto{Name: "garden"},
		},
		{
			name:        "Active name rejected before the store is hit",
			seed:        []Category{cat(1, "garden")},
			store:       &mockStore{},
			dto:         CategoryCreateDto{Name: "garden"},
			expectedErr: storeerr.ErrDuplicate,
		},
		{
			name:        "Store failure leaves the cache empty",
			store:       &mockStore{err: storeerr.ErrDuplicate},
			dto:         CategoryCreateDto{Name: "garden"},
			expectedErr: storeerr.ErrDuplicate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			tc.store.all = tc.seed
			svc, _ := newTestService(t, tc.store)
			require.NoError(t, svc.Warmup(context.Background()))

			// when
			got, err := svc.Create(context.Background(), tc.dto)

			// then
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				assert.Len(t, svc.List(), len(tc.seed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.dto.Name, got.Name)
			assert.True(t, svc.NameExists(tc.dto.Name))
		})
	}
}

func Test_Service_Update_RepairsCacheIndex(t *testing.T) {
	store := &mockStore{
		all: []Category{cat(1, "tools")},
		rec: ptr(cat(1, "power tools")),
	}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	_, err := svc.Update(context.Background(), CategoryDto{ID: 1, Name: "power tools"})

	require.NoError(t, err)
	assert.False(t, svc.NameExists("tools"))
	assert.True(t, svc.NameExists("power tools"))
}

func Test_Service_Delete_EvictsFromCache(t *testing.T) {
	store := &mockStore{all: []Category{cat(1, "tools")}}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	require.NoError(t, svc.Delete(context.Background(), 1))

	assert.Equal(t, []int64{1}, store.deleted)
	assert.False(t, svc.NameExists("tools"))
	assert.Empty(t, svc.List())
}

func Test_Service_Restore_TriggersRefresh(t *testing.T) {
	restored := cat(1, "tools")
	store := &mockStore{rec: &restored}
	svc, runner := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	// when: after restore the store serves the row as active again
	store.all = []Category{restored}
	got, err := svc.Restore(context.Background(), 1)
	runner.Wait()

	// then: the detached reload made the restored row visible
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, store.restored)
	assert.Equal(t, "tools", got.Name)
	assert.True(t, svc.NameExists("tools"))
}

func Test_Service_Restore_PropagatesNameConflict(t *testing.T) {
	store := &mockStore{err: storeerr.ErrDuplicate}
	svc, _ := newTestService(t, store)

	_, err := svc.Restore(context.Background(), 1)

	require.ErrorIs(t, err, storeerr.ErrDuplicate)
}

func ptr(c Category) *Category { return &c }
