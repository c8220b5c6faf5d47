package order

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

// mockStore is a hand-rolled Store. desired captures what the merge path
// handed to the repository.
type mockStore struct {
	orders  []Order
	items   []Item
	order   *Order
	merged  []Item
	err     error
	desired []Item
}

func (m *mockStore) FindByID(_ context.Context, _ int64) (*Order, []Item, error) {
	return m.order, m.merged, m.err
}

func (m *mockStore) FindAll(_ context.Context) ([]Order, []Item, error) {
	return m.orders, m.items, m.err
}

func (m *mockStore) FindByCustomer(_ context.Context, _ int64) ([]Order, error) {
	return m.orders, m.err
}

func (m *mockStore) Create(_ context.Context, _ Order, items []Item) (*Order, []Item, error) {
	m.desired = items
	return m.order, m.merged, m.err
}

func (m *mockStore) UpdateWithItems(_ context.Context, _ Order, desired []Item) (*Order, []Item, error) {
	m.desired = desired
	return m.order, m.merged, m.err
}

func (m *mockStore) Delete(_ context.Context, _ int64) error {
	return m.err
}

func newTestService(t *testing.T, store *mockStore) (*Service, *refresh.Runner) {
	t.Helper()
	runner := refresh.NewRunner(slog.New(slog.DiscardHandler), time.Second)
	return NewService(store, runner, slog.New(slog.DiscardHandler)), runner
}

func Test_Service_Warmup_PopulatesBothCaches(t *testing.T) {
	store := &mockStore{
		orders: []Order{ord(1, 7, StatusNew)},
		items:  []Item{item(1, 1, 100, 2, 500), item(2, 1, 101, 1, 300)},
	}
	svc, _ := newTestService(t, store)

	require.NoError(t, svc.Warmup(context.Background()))

	list := svc.List()
	require.Len(t, list, 1)
	assert.Equal(t, int64(1300), list[0].Total)
	assert.Len(t, list[0].Items, 2)
}

func Test_Service_GetByID_FallsBackToStoreOnMiss(t *testing.T) {
	fallbackOrder := ord(9, 7, StatusConfirmed)
	store := &mockStore{order: &fallbackOrder, merged: []Item{item(1, 9, 100, 2, 500)}}
	svc, _ := newTestService(t, store)

	found, err := svc.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), found.ID)
	assert.Equal(t, int64(1000), found.Total)

	assert.Empty(t, svc.List(), "fallback hit must not populate the cache")
}

func Test_Service_Create_ReflectsIntoCaches(t *testing.T) {
	created := ord(3, 7, StatusNew)
	store := &mockStore{order: &created, merged: []Item{item(10, 3, 100, 2, 500)}}
	svc, _ := newTestService(t, store)

	got, err := svc.Create(context.Background(), OrderCreateDto{
		CustomerID: 7,
		Status:     StatusNew,
		Items:      []OrderItemDto{{ProductID: 100, Quantity: 2, UnitPrice: 500}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, int64(1000), got.Total)

	// The derived line total was filled in before the write path ran.
	require.Len(t, store.desired, 1)
	assert.Equal(t, int64(1000), store.desired[0].TotalPrice)

	cached := svc.ListByCustomer(7)
	require.Len(t, cached, 1)
	assert.Len(t, cached[0].Items, 1)
}

func Test_Service_UpdateWithItems_AppliesMergedSetAfterCommit(t *testing.T) {
	store := &mockStore{
		orders: []Order{ord(1, 7, StatusNew)},
		items:  []Item{item(1, 1, 100, 2, 500), item(2, 1, 101, 3, 200)},
	}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	committed := ord(1, 7, StatusConfirmed)
	store.order = &committed
	store.merged = []Item{item(1, 1, 100, 2, 500), item(3, 1, 102, 5, 300)}

	got, err := svc.UpdateWithItems(context.Background(), OrderUpdateDto{
		ID:         1,
		CustomerID: 7,
		Status:     StatusConfirmed,
		Items: []OrderItemDto{
			{ID: 1, ProductID: 100, Quantity: 2, UnitPrice: 500},
			{ProductID: 102, Quantity: 5, UnitPrice: 300},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Equal(t, int64(2500), got.Total)

	cached, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, cached.Status)
	require.Len(t, cached.Items, 2)
	assert.Equal(t, int64(102), cached.Items[1].ProductID)
	assert.Empty(t, svc.ListByStatus(StatusNew), "status index was repaired")
}

func Test_Service_UpdateWithItems_FailureLeavesCachesUntouched(t *testing.T) {
	store := &mockStore{
		orders: []Order{ord(1, 7, StatusNew)},
		items:  []Item{item(1, 1, 100, 2, 500)},
	}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	store.err = storeerr.ErrForeignKey
	_, err := svc.UpdateWithItems(context.Background(), OrderUpdateDto{
		ID: 1, CustomerID: 999, Status: StatusConfirmed,
	})
	assert.ErrorIs(t, err, storeerr.ErrForeignKey)

	store.err = nil
	cached, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusNew, cached.Status)
	assert.Equal(t, int64(1000), cached.Total)
}

func Test_Service_Delete_EvictsOrderAndItems(t *testing.T) {
	store := &mockStore{
		orders: []Order{ord(1, 7, StatusNew)},
		items:  []Item{item(1, 1, 100, 2, 500)},
	}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Warmup(context.Background()))

	require.NoError(t, svc.Delete(context.Background(), 1))

	assert.Empty(t, svc.List())
	assert.Empty(t, svc.ListByCustomer(7))
}
