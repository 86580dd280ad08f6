package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "github.com/azorean79/gestor-naval-pro-sub005/internal/masterdata/domain"
)

const defaultBrandsTable = "brands"

// BrandRepository is a Postgres implementation for brands.
type BrandRepository struct {
	db    *sql.DB
	table string
}

// NewBrandRepository constructs a repository.
func NewBrandRepository(db *sql.DB, opts ...BrandOption) *BrandRepository {
	repo := &BrandRepository{db: db, table: defaultBrandsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// BrandOption configures the repository.
type BrandOption func(*BrandRepository)

// WithBrandTable overrides the default table name.
func WithBrandTable(table string) BrandOption {
	return func(repo *BrandRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a brand by name. Missing brands return nil, nil.
func (r *BrandRepository) Get(ctx context.Context, name string) (*masterdata.Brand, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("brand repo: nil db")
	}
	if name == "" {
		return nil, errors.New("brand repo: empty name")
	}

	query := fmt.Sprintf(`
SELECT name, manufacturer, periodicity_years, created_at, updated_at
FROM %s
WHERE name = $1
LIMIT 1`, r.table)

	var brand masterdata.Brand
	var manufacturer sql.NullString
	if err := r.db.QueryRowContext(ctx, query, name).Scan(
		&brand.Name,
		&manufacturer,
		&brand.PeriodicityYears,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	brand.Manufacturer = manufacturer.String
	return &brand, nil
}

// Save upserts a brand.
func (r *BrandRepository) Save(ctx context.Context, brand *masterdata.Brand) error {
	if r == nil || r.db == nil {
		return errors.New("brand repo: nil db")
	}
	if brand == nil {
		return errors.New("brand repo: nil brand")
	}
	if err := brand.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (name, manufacturer, periodicity_years, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET
	manufacturer = EXCLUDED.manufacturer,
	periodicity_years = EXCLUDED.periodicity_years,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		brand.Name, brand.Manufacturer, brand.PeriodicityYears,
		brand.CreatedAt, brand.UpdatedAt)
	return err
}

// List returns every brand ordered by name.
func (r *BrandRepository) List(ctx context.Context) ([]masterdata.Brand, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("brand repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT name, manufacturer, periodicity_years, created_at, updated_at
FROM %s
ORDER BY name`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []masterdata.Brand
	for rows.Next() {
		var brand masterdata.Brand
		var manufacturer sql.NullString
		if err := rows.Scan(&brand.Name, &manufacturer, &brand.PeriodicityYears,
			&brand.CreatedAt, &brand.UpdatedAt); err != nil {
			return nil, err
		}
		brand.Manufacturer = manufacturer.String
		brands = append(brands, brand)
	}
	return brands, rows.Err()
}
