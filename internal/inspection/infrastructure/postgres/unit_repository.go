package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

// querier is the subset of *sql.DB and *sql.Tx the repositories need. Methods
// that take a tx join it; a nil tx falls back to the pool.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UnitRepository persists units in Postgres.
type UnitRepository struct {
	db *sql.DB
}

// NewUnitRepository constructs a repository.
func NewUnitRepository(db *sql.DB) (*UnitRepository, error) {
	if db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	return &UnitRepository{db: db}, nil
}

func (r *UnitRepository) on(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

const unitColumns = `id, serial, brand, model, vessel_id, manufacture_date, status, last_inspection, next_due, created_at, updated_at`

// Get fetches a unit by id.
func (r *UnitRepository) Get(ctx context.Context, id string) (*inspection.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1`, id)
	return scanUnit(row)
}

// GetBySerial fetches a unit by serial number.
func (r *UnitRepository) GetBySerial(ctx context.Context, serial string) (*inspection.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE serial = $1`, serial)
	return scanUnit(row)
}

// GetForUpdate fetches a unit under a row lock inside tx.
func (r *UnitRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*inspection.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	row := r.on(tx).QueryRowContext(ctx, `SELECT `+unitColumns+` FROM units WHERE id = $1 FOR UPDATE`, id)
	return scanUnit(row)
}

// Create inserts a new unit.
func (r *UnitRepository) Create(ctx context.Context, tx *sql.Tx, unit *inspection.Unit) error {
	if r == nil || r.db == nil {
		return errors.New("unit repo: nil db")
	}
	if unit == nil {
		return errors.New("unit repo: nil unit")
	}
	_, err := r.on(tx).ExecContext(ctx, `
INSERT INTO units (`+unitColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		unit.ID, unit.Serial, unit.Brand, unit.Model, nullString(unit.VesselID),
		unit.ManufactureDate, unit.Status, nullTime(unit.LastInspection), nullTime(unit.NextDue),
		unit.CreatedAt, unit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("unit repo: insert %s: %w", unit.ID, err)
	}
	return nil
}

// Update rewrites the mutable fields of a unit.
func (r *UnitRepository) Update(ctx context.Context, tx *sql.Tx, unit *inspection.Unit) error {
	if r == nil || r.db == nil {
		return errors.New("unit repo: nil db")
	}
	if unit == nil {
		return errors.New("unit repo: nil unit")
	}
	result, err := r.on(tx).ExecContext(ctx, `
UPDATE units
SET brand = $2, model = $3, vessel_id = $4, status = $5,
	last_inspection = $6, next_due = $7, updated_at = $8
WHERE id = $1`,
		unit.ID, unit.Brand, unit.Model, nullString(unit.VesselID), unit.Status,
		nullTime(unit.LastInspection), nullTime(unit.NextDue), unit.UpdatedAt)
	if err != nil {
		return fmt.Errorf("unit repo: update %s: %w", unit.ID, err)
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

// List returns every unit, newest first.
func (r *UnitRepository) List(ctx context.Context) ([]inspection.Unit, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("unit repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+unitColumns+` FROM units ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("unit repo: list: %w", err)
	}
	defer rows.Close()

	var units []inspection.Unit
	for rows.Next() {
		unit, err := scanUnitRows(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	return units, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row *sql.Row) (*inspection.Unit, error) {
	unit, err := scanUnitRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrNotFound
	}
	return unit, err
}

func scanUnitRows(scanner rowScanner) (*inspection.Unit, error) {
	var unit inspection.Unit
	var vesselID sql.NullString
	var lastInspection, nextDue sql.NullTime
	err := scanner.Scan(&unit.ID, &unit.Serial, &unit.Brand, &unit.Model, &vesselID,
		&unit.ManufactureDate, &unit.Status, &lastInspection, &nextDue,
		&unit.CreatedAt, &unit.UpdatedAt)
	if err != nil {
		return nil, err
	}
	unit.VesselID = vesselID.String
	if lastInspection.Valid {
		unit.LastInspection = lastInspection.Time
	}
	if nextDue.Valid {
		unit.NextDue = nextDue.Time
	}
	return &unit, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
