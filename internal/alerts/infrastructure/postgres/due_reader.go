package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/azorean79/gestor-naval-pro-sub005/internal/alerts/application"
)

// DefaultHorizonDays bounds how far ahead the due queries look. Anything
// beyond the widest classification window is noise for the feed.
const DefaultHorizonDays = 90

// DueReader reads scheduling deadlines from the units and cylinders tables.
type DueReader struct {
	db      *sql.DB
	horizon time.Duration
}

// NewDueReader constructs a reader over db.
func NewDueReader(db *sql.DB) (*DueReader, error) {
	if db == nil {
		return nil, errors.New("alerts postgres: nil db")
	}
	return &DueReader{db: db, horizon: DefaultHorizonDays * 24 * time.Hour}, nil
}

// ListUnitsDue returns active units whose next inspection falls inside the
// horizon, overdue ones included.
func (r *DueReader) ListUnitsDue(ctx context.Context) ([]application.UnitDue, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alerts postgres: reader not initialized")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, serial, next_due
		FROM units
		WHERE status = 'active' AND next_due IS NOT NULL AND next_due <= $1
		ORDER BY next_due ASC`,
		time.Now().UTC().Add(r.horizon))
	if err != nil {
		return nil, fmt.Errorf("alerts postgres: list units due: %w", err)
	}
	defer rows.Close()

	var out []application.UnitDue
	for rows.Next() {
		var unit application.UnitDue
		if err := rows.Scan(&unit.ID, &unit.Serial, &unit.NextDue); err != nil {
			return nil, fmt.Errorf("alerts postgres: scan unit: %w", err)
		}
		out = append(out, unit)
	}
	return out, rows.Err()
}

// ListCylindersDue returns cylinders whose next hydrostatic test falls inside
// the horizon.
func (r *DueReader) ListCylindersDue(ctx context.Context) ([]application.CylinderDue, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alerts postgres: reader not initialized")
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, serial, next_test
		FROM cylinders
		WHERE next_test IS NOT NULL AND next_test <= $1
		ORDER BY next_test ASC`,
		time.Now().UTC().Add(r.horizon))
	if err != nil {
		return nil, fmt.Errorf("alerts postgres: list cylinders due: %w", err)
	}
	defer rows.Close()

	var out []application.CylinderDue
	for rows.Next() {
		var cylinder application.CylinderDue
		if err := rows.Scan(&cylinder.ID, &cylinder.Serial, &cylinder.NextTest); err != nil {
			return nil, fmt.Errorf("alerts postgres: scan cylinder: %w", err)
		}
		out = append(out, cylinder)
	}
	return out, rows.Err()
}
