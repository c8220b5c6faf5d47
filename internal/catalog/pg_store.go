package catalog

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

// NewPgStore creates a new category store backed by the given pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const categoryColumns = "id, name, description, created_at, updated_at, deleted_at"

func (p *PgStore) FindByID(ctx context.Context, id int64) (*Category, error) {
	row := p.db.QueryRow(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = $1", id)
	rec, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("find category by ID: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) FindAllActive(ctx context.Context) ([]Category, error) {
	rows, err := p.db.Query(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE deleted_at IS NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find active categories: %w", err)
	}
	return collectCategories(rows)
}

func (p *PgStore) Create(ctx context.Context, c Category) (*Category, error) {
	row := p.db.QueryRow(ctx, `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING `+categoryColumns,
		c.Name, c.Description)
	rec, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) Update(ctx context.Context, c Category) (*Category, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Description)
	rec, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func (p *PgStore) SoftDelete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx,
		"UPDATE categories SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", storeerr.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return storeerr.ErrNotFound
	}
	return nil
}

// Restore clears the deletion stamp. The partial unique index on name fires
// here when an active row took the name while this one was deleted.
func (p *PgStore) Restore(ctx context.Context, id int64) (*Category, error) {
	row := p.db.QueryRow(ctx, `
		UPDATE categories
		SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL
		RETURNING `+categoryColumns,
		id)
	rec, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("restore category: %w", storeerr.Classify(err))
	}
	return rec, nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var rec Category
	err := row.Scan(&rec.ID, &rec.Name, &rec.Description,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.DeletedAt)
	if err != nil {
		return nil, err
	}
	rec.Deleted = rec.DeletedAt != nil
	return &rec, nil
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	defer rows.Close()
	var records []Category
	for rows.Next() {
		rec, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return records, nil
}
