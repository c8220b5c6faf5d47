package customer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stockdesk/stockdesk/pkg/storeerr"
)

// PgStore implements Store on PostgreSQL.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new customer store backed by the given pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const customerColumns = "id, name, email, phone, created_at, updated_at, deleted_at"

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Customer, error) {
	row := p.db.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)
	rec, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("find customer by ID: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) FindAllActive(ctx context.Context) ([]Customer, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE deleted_at IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find active customers: %w", err)
	}
	return collectCustomers(rows)
}

func (p *PgStore) Create(ctx context.Context, c Customer) (*Customer, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO customers (name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING `+customerColumns,
		c.Name, c.Email, c.Phone)
	rec, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) Update(ctx context.Context, c Customer) (*Customer, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+customerColumns,
		c.ID, c.Name, c.Email, c.Phone)
	rec, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("update customer: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) SoftDelete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx,
		"UPDATE customers SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("soft delete customer: %w", storeerr.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return storeerr.ErrNotFound
	}
	return nil
}

// Restore clears the deletion stamp. The partial unique indexes on email and
// phone fire here when an active row took either value in the meantime.
func (p *PgStore) Restore(ctx context.Context, id int64) (*Customer, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE customers
		SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING `+customerColumns,
		id)
	rec, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("restore customer: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	var rec Customer
	err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Phone,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt)
	if err != nil {
		return nil, err
	}
	rec.Deleted = rec.DeletedAt != nil
	return &rec, nil
}

func collectCustomers(rows pgx.Rows) ([]Customer, error) {
	defer rows.Close()
	var records []Customer
	for rows.Next() {
		rec, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer rows: %w", err)
	}
	return records, nil
}
