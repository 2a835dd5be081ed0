package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLRepo persists catalog entities in Postgres.
//
// Schema assumptions (see db/schema.sql):
// - categories.name and zones.name have unique indexes on lower(name)
type SQLRepo struct {
	db *sql.DB
}

func NewSQLRepo(db *sql.DB) *SQLRepo { return &SQLRepo{db: db} }

func (r *SQLRepo) CreateCategory(ctx context.Context, c Category) error {
	const q = `
INSERT INTO categories (id, name, description, default_priority, created_at, updated_at)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6)
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.Name, c.Description, c.DefaultPriority, c.CreatedAt, c.UpdatedAt)
	if isUnique(err) {
		return ErrNameTaken
	}
	return err
}

func (r *SQLRepo) GetCategory(ctx context.Context, id string) (Category, error) {
	const q = `
SELECT id, name, description, COALESCE(default_priority::text, ''), created_at, updated_at
FROM categories WHERE id = $1
`
	var c Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.DefaultPriority, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (r *SQLRepo) ListCategories(ctx context.Context) ([]Category, error) {
	const q = `
SELECT id, name, description, COALESCE(default_priority::text, ''), created_at, updated_at
FROM categories ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DefaultPriority, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepo) CreateZone(ctx context.Context, z Zone) error {
	const q = `
INSERT INTO zones (id, name, district, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
`
	_, err := r.db.ExecContext(ctx, q, z.ID, z.Name, z.District, z.CreatedAt, z.UpdatedAt)
	if isUnique(err) {
		return ErrNameTaken
	}
	return err
}

func (r *SQLRepo) GetZone(ctx context.Context, id string) (Zone, error) {
	const q = `SELECT id, name, district, created_at, updated_at FROM zones WHERE id = $1`
	var z Zone
	err := r.db.QueryRowContext(ctx, q, id).Scan(&z.ID, &z.Name, &z.District, &z.CreatedAt, &z.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Zone{}, ErrNotFound
	}
	return z, err
}

func (r *SQLRepo) ListZones(ctx context.Context) ([]Zone, error) {
	const q = `SELECT id, name, district, created_at, updated_at FROM zones ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.District, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
