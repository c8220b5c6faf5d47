package inventory

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

// NewPgStore creates a new inventory store backed by the given pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const inventoryColumns = "id, product_id, location_id, current_stock, reserved_stock, updated_at"

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Inventory, error) {
	row := p.db.QueryRow(ctx,
		"SELECT "+inventoryColumns+" FROM inventories WHERE id = $1", id)
	rec, err := scanInventory(row)
	if err != nil {
		return nil, fmt.Errorf("find inventory by ID: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) FindAll(ctx context.Context) ([]Inventory, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+inventoryColumns+" FROM inventories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find all inventories: %w", err)
	}
	return collectInventories(rows)
}

func (p *PgStore) FindByProduct(ctx context.Context, productID int64) ([]Inventory, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+inventoryColumns+" FROM inventories WHERE product_id = $1 ORDER BY id", productID)
	if err != nil {
		return nil, fmt.Errorf("find inventories by product: %w", err)
	}
	return collectInventories(rows)
}

func (p *PgStore) Create(ctx context.Context, rec Inventory) (*Inventory, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO inventories (product_id, location_id, current_stock, reserved_stock, updated_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+inventoryColumns,
		rec.ProductID, rec.LocationID, rec.CurrentStock, rec.ReservedStock)
	created, err := scanInventory(row)
	if err != nil {
		return nil, fmt.Errorf("create inventory: %w", storeerr.Classify(err))
	}
	return created, nil
}

func (p *PgStore) Update(ctx context.Context, rec Inventory) (*Inventory, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE inventories
		SET product_id = $2, location_id = $3, current_stock = $4, reserved_stock = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+inventoryColumns,
		rec.ID, rec.ProductID, rec.LocationID, rec.CurrentStock, rec.ReservedStock)
	updated, err := scanInventory(row)
	if err != nil {
		return nil, fmt.Errorf("update inventory: %w", storeerr.Classify(err))
	}
	return updated, nil
}

func (p *PgStore) AdjustStock(ctx context.Context, id int64, delta int32) (*Inventory, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE inventories
		SET current_stock = current_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock + $2 >= reserved_stock
		RETURNING `+inventoryColumns,
		id, delta)
	return p.scanStockUpdate(ctx, row, id, ErrInsufficientStock, "adjust stock")
}

func (p *PgStore) ReserveStock(ctx context.Context, id int64, qty int32) (*Inventory, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE inventories
		SET reserved_stock = reserved_stock + $2, updated_at = now()
		WHERE id = $1 AND current_stock - reserved_stock >= $2
		RETURNING `+inventoryColumns,
		id, qty)
	return p.scanStockUpdate(ctx, row, id, ErrInsufficientStock, "reserve stock")
}

func (p *PgStore) ReleaseStock(ctx context.Context, id int64, qty int32) (*Inventory, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE inventories
		SET reserved_stock = reserved_stock - $2, updated_at = now()
		WHERE id = $1 AND reserved_stock >= $2
		RETURNING `+inventoryColumns,
		id, qty)
	return p.scanStockUpdate(ctx, row, id, storeerr.ErrInvalidInput, "release stock")
}

// scanStockUpdate disambiguates a conditional stock update that matched no
// row: a missing record is ErrNotFound, an existing one failed the guard.
func (p *PgStore) scanStockUpdate(ctx context.Context, row pgx.Row, id int64, guardErr error, op string) (*Inventory, error) {
	updated, err := scanInventory(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storeerr.Classify(err))
	}
	if _, findErr := p.FindByID(ctx, id); findErr != nil {
		return nil, fmt.Errorf("%s: %w", op, findErr)
	}
	return nil, fmt.Errorf("%s: %w", op, guardErr)
}

func (p *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, "DELETE FROM inventories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete inventory: %w", storeerr.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return storeerr.ErrNotFound
	}
	return nil
}

func (p *PgStore) ExistsByProductAndLocation(ctx context.Context, productID, locationID int64) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM inventories WHERE product_id = $1 AND location_id = $2)",
		productID, locationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check inventory existence: %w", err)
	}
	return exists, nil
}

func scanInventory(row pgx.Row) (*Inventory, error) {
	var rec Inventory
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.LocationID,
		&rec.CurrentStock, &rec.ReservedStock, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectInventories(rows pgx.Rows) ([]Inventory, error) {
	defer rows.Close()
	var records []Inventory
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	return records, nil
}
