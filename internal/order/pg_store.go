package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new order store backed by the given pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const (
	orderColumns = "id, customer_id, status, created_at, updated_at"
	itemColumns  = "id, order_id, product_id, quantity, unit_price, total_price"
)

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Order, []Item, error) {
	var o *Order
	var items []Item

	// One transaction so the order and its items are a consistent snapshot.
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
		found, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("find order by ID: %w", storeerr.Classify(err))
		}
		items, err = queryItems(ctx, tx, id)
		if err != nil {
			return err
		}
		o = found
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return o, items, nil
}

func (p *PgStore) FindAll(ctx context.Context) ([]Order, []Item, error) {
	var orders []Order
	var items []Item

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY id")
		if err != nil {
			return fmt.Errorf("find all orders: %w", err)
		}
		orders, err = collectOrders(rows)
		if err != nil {
			return err
		}
		itemRows, err := tx.Query(ctx, "SELECT "+itemColumns+" FROM order_items ORDER BY order_id, id")
		if err != nil {
			return fmt.Errorf("find all order items: %w", err)
		}
		items, err = collectItems(itemRows)
		return err
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return orders, items, nil
}

func (p *PgStore) FindByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = $1 ORDER BY id", customerID)
	if err != nil {
		return nil, fmt.Errorf("find orders by customer: %w", err)
	}
	return collectOrders(rows)
}

func (p *PgStore) Create(ctx context.Context, o Order, items []Item) (*Order, []Item, error) {
	var created *Order
	var createdItems []Item

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO orders (customer_id, status, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			RETURNING `+orderColumns,
			o.CustomerID, o.Status)
		inserted, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("create order: %w", storeerr.Classify(err))
		}
		createdItems = make([]Item, 0, len(items))
		for _, item := range items {
			item.OrderID = inserted.ID
			stored, err := insertItem(ctx, tx, item)
			if err != nil {
				return err
			}
			createdItems = append(createdItems, *stored)
		}
		created = inserted
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return created, createdItems, nil
}

// UpdateWithItems is the transactional half of the diff-merge path. It
// updates the parent row, loads the committed items inside the same
// transaction (the cache may be stale), executes the minimal statement set
// and commits; any failure rolls everything back.
func (p *PgStore) UpdateWithItems(ctx context.Context, o Order, desired []Item) (*Order, []Item, error) {
	var updated *Order
	var merged []Item

	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE orders
			SET customer_id = $2, status = $3, updated_at = now()
			WHERE id = $1
			RETURNING `+orderColumns,
			o.ID, o.CustomerID, o.Status)
		parent, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("update order: %w", storeerr.Classify(err))
		}

		existing, err := queryItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		plan := planMerge(existing, desired)

		for _, id := range plan.deletes {
			if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE id = $1", id); err != nil {
				return fmt.Errorf("delete order item %d: %w", id, storeerr.Classify(err))
			}
		}
		for _, item := range plan.inserts {
			item.OrderID = o.ID
			if _, err := insertItem(ctx, tx, item); err != nil {
				return err
			}
		}
		for _, item := range plan.updates {
			tag, err := tx.Exec(ctx, `
				UPDATE order_items
				SET product_id = $2, quantity = $3, unit_price = $4, total_price = $5
				WHERE id = $1 AND order_id = $6`,
				item.ID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, o.ID)
			if err != nil {
				return fmt.Errorf("update order item %d: %w", item.ID, storeerr.Classify(err))
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("update order item %d: %w", item.ID, storeerr.ErrNotFound)
			}
		}

		// Re-read so the caller gets the committed set with assigned IDs.
		merged, err = queryItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		updated = parent
		return nil
	})
	if txErr != nil {
		return nil, nil, txErr
	}
	return updated, merged, nil
}

func (p *PgStore) Delete(ctx context.Context, id int64) error {
	return p.withTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
			return fmt.Errorf("delete order items: %w", storeerr.Classify(err))
		}
		tag, err := tx.Exec(ctx, "DELETE FROM orders WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete order: %w", storeerr.Classify(err))
		}
		if tag.RowsAffected() == 0 {
			return storeerr.ErrNotFound
		}
		return nil
	})
}

// withTransaction runs fn inside a transaction, rolling back on any error.
func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, tx pgx.Tx, item Item) (*Item, error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+itemColumns,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice)
	stored, err := scanItem(row)
	if err != nil {
		return nil, fmt.Errorf("insert order item: %w", storeerr.Classify(err))
	}
	return stored, nil
}

func queryItems(ctx context.Context, tx pgx.Tx, orderID int64) ([]Item, error) {
	rows, err := tx.Query(ctx,
		"SELECT "+itemColumns+" FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, fmt.Errorf("find order items: %w", err)
	}
	return collectItems(rows)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID,
		&item.Quantity, &item.UnitPrice, &item.TotalPrice)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order item rows: %w", err)
	}
	return items, nil
}
