package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

// CylinderRepository persists cylinders in Postgres.
type CylinderRepository struct {
	db *sql.DB
}

// NewCylinderRepository constructs a repository.
func NewCylinderRepository(db *sql.DB) (*CylinderRepository, error) {
	if db == nil {
		return nil, errors.New("cylinder repo: nil db")
	}
	return &CylinderRepository{db: db}, nil
}

func (r *CylinderRepository) on(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

const cylinderColumns = `id, serial, working_pressure_bar, test_pressure_bar, last_test, next_test, created_at, updated_at`

// Get fetches a cylinder by id.
func (r *CylinderRepository) Get(ctx context.Context, id string) (*inspection.Cylinder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cylinder repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+cylinderColumns+` FROM cylinders WHERE id = $1`, id)
	return scanCylinder(row)
}

// GetForUpdate fetches a cylinder under a row lock inside tx.
func (r *CylinderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*inspection.Cylinder, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cylinder repo: nil db")
	}
	row := r.on(tx).QueryRowContext(ctx, `SELECT `+cylinderColumns+` FROM cylinders WHERE id = $1 FOR UPDATE`, id)
	return scanCylinder(row)
}

// Create inserts a new cylinder.
func (r *CylinderRepository) Create(ctx context.Context, tx *sql.Tx, cylinder *inspection.Cylinder) error {
	if r == nil || r.db == nil {
		return errors.New("cylinder repo: nil db")
	}
	if cylinder == nil {
		return errors.New("cylinder repo: nil cylinder")
	}
	_, err := r.on(tx).ExecContext(ctx, `
INSERT INTO cylinders (`+cylinderColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		cylinder.ID, cylinder.Serial, cylinder.WorkingPressureBar, cylinder.TestPressureBar,
		nullTime(cylinder.LastTest), nullTime(cylinder.NextTest), cylinder.CreatedAt, cylinder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cylinder repo: insert %s: %w", cylinder.ID, err)
	}
	return nil
}

// Update rewrites the mutable fields of a cylinder.
func (r *CylinderRepository) Update(ctx context.Context, tx *sql.Tx, cylinder *inspection.Cylinder) error {
	if r == nil || r.db == nil {
		return errors.New("cylinder repo: nil db")
	}
	if cylinder == nil {
		return errors.New("cylinder repo: nil cylinder")
	}
	result, err := r.on(tx).ExecContext(ctx, `
UPDATE cylinders
SET working_pressure_bar = $2, test_pressure_bar = $3,
	last_test = $4, next_test = $5, updated_at = $6
WHERE id = $1`,
		cylinder.ID, cylinder.WorkingPressureBar, cylinder.TestPressureBar,
		nullTime(cylinder.LastTest), nullTime(cylinder.NextTest), cylinder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cylinder repo: update %s: %w", cylinder.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return inspection.ErrNotFound
	}
	return nil
}

func scanCylinder(row *sql.Row) (*inspection.Cylinder, error) {
	var cylinder inspection.Cylinder
	var lastTest, nextTest sql.NullTime
	err := row.Scan(&cylinder.ID, &cylinder.Serial, &cylinder.WorkingPressureBar, &cylinder.TestPressureBar,
		&lastTest, &nextTest, &cylinder.CreatedAt, &cylinder.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastTest.Valid {
		cylinder.LastTest = lastTest.Time
	}
	if nextTest.Valid {
		cylinder.NextTest = nextTest.Time
	}
	return &cylinder, nil
}
