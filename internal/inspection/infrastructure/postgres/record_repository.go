package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

const defaultRecordLimit = 50

// RecordRepository persists inspection records. Tests performed and consumed
// components are stored as jsonb.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository.
func NewRecordRepository(db *sql.DB) (*RecordRepository, error) {
	if db == nil {
		return nil, errors.New("record repo: nil db")
	}
	return &RecordRepository{db: db}, nil
}

func (r *RecordRepository) on(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

// Insert appends one record. Records are never updated or deleted.
func (r *RecordRepository) Insert(ctx context.Context, tx *sql.Tx, record *inspection.InspectionRecord) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	if record == nil {
		return errors.New("record repo: nil record")
	}
	tests, err := json.Marshal(record.TestsPerformed)
	if err != nil {
		return fmt.Errorf("record repo: marshal tests: %w", err)
	}
	consumed, err := json.Marshal(record.Consumed)
	if err != nil {
		return fmt.Errorf("record repo: marshal consumption: %w", err)
	}
	_, err = r.on(tx).ExecContext(ctx, `
INSERT INTO inspection_records (id, unit_id, cylinder_id, inspected_at, result, technician, tests_performed, consumed, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		record.ID, nullString(record.UnitID), nullString(record.CylinderID),
		record.Date, record.Result, record.Technician, tests, consumed, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("record repo: insert %s: %w", record.ID, err)
	}
	return nil
}

// Get fetches one record by id.
func (r *RecordRepository) Get(ctx context.Context, id string) (*inspection.InspectionRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, unit_id, cylinder_id, inspected_at, result, technician, tests_performed, consumed, created_at
FROM inspection_records
WHERE id = $1`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrNotFound
	}
	return record, err
}

// ListByUnit lists a unit's records, newest first.
func (r *RecordRepository) ListByUnit(ctx context.Context, unitID string, limit int) ([]inspection.InspectionRecord, error) {
	return r.list(ctx, "unit_id", unitID, limit)
}

// ListByCylinder lists a cylinder's records, newest first.
func (r *RecordRepository) ListByCylinder(ctx context.Context, cylinderID string, limit int) ([]inspection.InspectionRecord, error) {
	return r.list(ctx, "cylinder_id", cylinderID, limit)
}

func (r *RecordRepository) list(ctx context.Context, column, id string, limit int) ([]inspection.InspectionRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	if limit <= 0 {
		limit = defaultRecordLimit
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, unit_id, cylinder_id, inspected_at, result, technician, tests_performed, consumed, created_at
FROM inspection_records
WHERE `+column+` = $1
ORDER BY inspected_at DESC, created_at DESC
LIMIT $2`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("record repo: list: %w", err)
	}
	defer rows.Close()

	var records []inspection.InspectionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanRecord(scanner rowScanner) (*inspection.InspectionRecord, error) {
	var record inspection.InspectionRecord
	var unitID, cylinderID sql.NullString
	var tests, consumed []byte
	err := scanner.Scan(&record.ID, &unitID, &cylinderID, &record.Date, &record.Result,
		&record.Technician, &tests, &consumed, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.UnitID = unitID.String
	record.CylinderID = cylinderID.String
	if len(tests) > 0 {
		if err := json.Unmarshal(tests, &record.TestsPerformed); err != nil {
			return nil, fmt.Errorf("record repo: unmarshal tests: %w", err)
		}
	}
	if len(consumed) > 0 {
		if err := json.Unmarshal(consumed, &record.Consumed); err != nil {
			return nil, fmt.Errorf("record repo: unmarshal consumption: %w", err)
		}
	}
	return &record, nil
}
