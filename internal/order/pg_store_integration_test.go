package order

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "STOCKDESK_SKIP_INTEGRATION_TESTS"

// OrderStoreSuite exercises PgStore against a real PostgreSQL instance,
// in particular the transactional item merge.
type OrderStoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	dbPool      *pgxpool.Pool
	store       *PgStore
	logger      *slog.Logger
	ctx         context.Context
}

// SetupSuite starts a PostgreSQL container, connects a pool and applies the
// schema migrations.
func (s *OrderStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "stockdesk_db"
	dbUser := "user"
	dbPassword := "password"

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
}

// TearDownSuite releases the pool and the container.
func (s *OrderStoreSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest wipes all order data before each test.
func (s *OrderStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE orders, customers RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func TestOrderStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(OrderStoreSuite))
}

// createTestCustomer inserts a customer row directly; orders carry a foreign
// key to it.
func (s *OrderStoreSuite) createTestCustomer(email string) int64 {
	s.T().Helper()
	var id int64
	err := s.dbPool.QueryRow(s.ctx, `
		INSERT INTO customers (name, email, phone)
		VALUES ('Test Customer', $1, $1)
		RETURNING id`, email).Scan(&id)
	require.NoError(s.T(), err, "createTestCustomer helper failed")
	return id
}

func (s *OrderStoreSuite) createTestOrder(customerID int64, items []Item) (*Order, []Item) {
	s.T().Helper()
	created, createdItems, err := s.store.Create(s.ctx, Order{CustomerID: customerID, Status: StatusNew}, items)
	require.NoError(s.T(), err, "createTestOrder helper failed to create order")
	return created, createdItems
}

func (s *OrderStoreSuite) TestCreate() {
	// given
	customerID := s.createTestCustomer("create@test.dev")
	items := []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
		{ProductID: 102, Quantity: 1, UnitPrice: 300, TotalPrice: 300},
	}

	// when
	created, createdItems, err := s.store.Create(s.ctx, Order{CustomerID: customerID, Status: StatusNew}, items)

	// then
	require.NoError(s.T(), err, "Create should not return an error")
	require.NotZero(s.T(), created.ID, "Created order ID should not be zero")
	require.Equal(s.T(), customerID, created.CustomerID)
	require.Equal(s.T(), StatusNew, created.Status)
	require.NotZero(s.T(), created.CreatedAt, "CreatedAt should be set")

	require.Len(s.T(), createdItems, 2)
	for i, item := range createdItems {
		require.NotZero(s.T(), item.ID, "Created item ID should not be zero")
		require.Equal(s.T(), created.ID, item.OrderID)
		require.Equal(s.T(), items[i].ProductID, item.ProductID)
		require.Equal(s.T(), items[i].TotalPrice, item.TotalPrice)
	}
}

func (s *OrderStoreSuite) TestFindByID() {
	// given
	customerID := s.createTestCustomer("find@test.dev")
	created, createdItems := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	// when
	fetched, fetchedItems, err := s.store.FindByID(s.ctx, created.ID)

	// then
	require.NoError(s.T(), err, "FindByID should not return an error")
	require.Equal(s.T(), created.ID, fetched.ID)
	require.Equal(s.T(), created.CustomerID, fetched.CustomerID)
	require.Equal(s.T(), created.Status, fetched.Status)
	require.WithinDuration(s.T(), created.CreatedAt, fetched.CreatedAt, time.Second)

	require.Len(s.T(), fetchedItems, 1)
	require.Equal(s.T(), createdItems[0].ID, fetchedItems[0].ID)
	require.Equal(s.T(), createdItems[0].ProductID, fetchedItems[0].ProductID)
	require.Equal(s.T(), createdItems[0].TotalPrice, fetchedItems[0].TotalPrice)
}

func (s *OrderStoreSuite) TestFindByID_NotFound() {
	// when
	_, _, err := s.store.FindByID(s.ctx, 424242)

	// then
	require.ErrorIs(s.T(), err, storeerr.ErrNotFound, "Expected ErrNotFound for non-existent order")
}

// TestUpdateWithItems_MinimalMerge verifies that unchanged lines survive the
// merge with their identity intact while removed lines are deleted and new
// lines inserted.
func (s *OrderStoreSuite) TestUpdateWithItems_MinimalMerge() {
	// given: committed items {A, B}
	customerID := s.createTestCustomer("merge@test.dev")
	created, committed := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000}, // A
		{ProductID: 102, Quantity: 1, UnitPrice: 300, TotalPrice: 300},  // B
	})
	itemA, itemB := committed[0], committed[1]

	// when: desired is {A unchanged, C new}
	desired := []Item{
		itemA,
		{ProductID: 103, Quantity: 3, UnitPrice: 200, TotalPrice: 600}, // C
	}
	updated, merged, err := s.store.UpdateWithItems(s.ctx, Order{
		ID:         created.ID,
		CustomerID: customerID,
		Status:     StatusConfirmed,
	}, desired)

	// then
	require.NoError(s.T(), err, "UpdateWithItems should not return an error")
	require.Equal(s.T(), StatusConfirmed, updated.Status)
	require.Len(s.T(), merged, 2)

	byProduct := make(map[int64]Item, len(merged))
	for _, item := range merged {
		byProduct[item.ProductID] = item
	}
	require.Equal(s.T(), itemA.ID, byProduct[101].ID, "Unchanged line must keep its ID")
	require.NotContains(s.T(), byProduct, itemB.ProductID, "Removed line must be deleted")
	require.NotZero(s.T(), byProduct[103].ID, "New line must get an ID")
	require.Greater(s.T(), byProduct[103].ID, itemB.ID, "New line must be a fresh row, not a reused one")
}

func (s *OrderStoreSuite) TestUpdateWithItems_UpdatesInPlace() {
	// given
	customerID := s.createTestCustomer("inplace@test.dev")
	created, committed := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	// when: same identity, different quantity
	changed := committed[0]
	changed.Quantity = 5
	changed.TotalPrice = 2500
	_, merged, err := s.store.UpdateWithItems(s.ctx, *created, []Item{changed})

	// then
	require.NoError(s.T(), err)
	require.Len(s.T(), merged, 1)
	require.Equal(s.T(), committed[0].ID, merged[0].ID, "Changed line must be updated, not replaced")
	require.Equal(s.T(), int32(5), merged[0].Quantity)
	require.Equal(s.T(), int64(2500), merged[0].TotalPrice)
}

// TestUpdateWithItems_RollsBackOnFailure drives the merge into a check
// constraint violation and verifies nothing was applied, including the
// parent update.
func (s *OrderStoreSuite) TestUpdateWithItems_RollsBackOnFailure() {
	// given
	customerID := s.createTestCustomer("rollback@test.dev")
	created, committed := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	// when: desired contains a line violating CHECK (quantity > 0)
	desired := []Item{
		committed[0],
		{ProductID: 103, Quantity: 0, UnitPrice: 200, TotalPrice: 0},
	}
	_, _, err := s.store.UpdateWithItems(s.ctx, Order{
		ID:         created.ID,
		CustomerID: customerID,
		Status:     StatusConfirmed,
	}, desired)

	// then
	require.ErrorIs(s.T(), err, storeerr.ErrConstraint)

	fetched, fetchedItems, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), StatusNew, fetched.Status, "Parent update must be rolled back")
	require.Len(s.T(), fetchedItems, 1, "Item changes must be rolled back")
	require.Equal(s.T(), committed[0].ID, fetchedItems[0].ID)
}

func (s *OrderStoreSuite) TestUpdateWithItems_DuplicateProductRejected() {
	// given
	customerID := s.createTestCustomer("dup@test.dev")
	created, committed := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	// when: a new line reuses an already committed product
	desired := []Item{
		committed[0],
		{ProductID: 101, Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	}
	_, _, err := s.store.UpdateWithItems(s.ctx, *created, desired)

	// then
	require.ErrorIs(s.T(), err, storeerr.ErrDuplicate)
}

func (s *OrderStoreSuite) TestDelete() {
	// given
	customerID := s.createTestCustomer("delete@test.dev")
	created, _ := s.createTestOrder(customerID, []Item{
		{ProductID: 101, Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	// when
	err := s.store.Delete(s.ctx, created.ID)

	// then
	require.NoError(s.T(), err, "Delete should not return an error")
	_, _, err = s.store.FindByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, storeerr.ErrNotFound)

	var count int
	err = s.dbPool.QueryRow(s.ctx, "SELECT count(*) FROM order_items WHERE order_id = $1", created.ID).Scan(&count)
	require.NoError(s.T(), err)
	require.Zero(s.T(), count, "Items must be removed with their order")
}

func (s *OrderStoreSuite) TestDelete_NotFound() {
	err := s.store.Delete(s.ctx, 424242)
	require.ErrorIs(s.T(), err, storeerr.ErrNotFound)
}
