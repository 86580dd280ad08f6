package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	inspection "github.com/azorean79/gestor-naval-pro-sub005/internal/inspection/domain"
)

// TxRunner satisfies the application transaction port without a database.
// Callbacks receive a nil tx; the memory repositories ignore it.
type TxRunner struct{}

// NewTxRunner constructs a runner.
func NewTxRunner() *TxRunner { return &TxRunner{} }

// RunInTx runs fn directly.
func (TxRunner) RunInTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	return fn(nil)
}

// UnitRepository is an in-memory unit store for tests.
type UnitRepository struct {
	mu    sync.Mutex
	units map[string]inspection.Unit
}

// NewUnitRepository constructs an empty store.
func NewUnitRepository() *UnitRepository {
	return &UnitRepository{units: make(map[string]inspection.Unit)}
}

// Seed inserts a unit directly.
func (r *UnitRepository) Seed(unit inspection.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.ID] = unit
}

// Get fetches a unit by id.
func (r *UnitRepository) Get(_ context.Context, id string) (*inspection.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	unit, ok := r.units[id]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	copied := unit
	return &copied, nil
}

// GetBySerial fetches a unit by serial.
func (r *UnitRepository) GetBySerial(_ context.Context, serial string) (*inspection.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, unit := range r.units {
		if unit.Serial == serial {
			copied := unit
			return &copied, nil
		}
	}
	return nil, inspection.ErrNotFound
}

// GetForUpdate fetches a unit; the tx is ignored.
func (r *UnitRepository) GetForUpdate(ctx context.Context, _ *sql.Tx, id string) (*inspection.Unit, error) {
	return r.Get(ctx, id)
}

// Create inserts a unit.
func (r *UnitRepository) Create(_ context.Context, _ *sql.Tx, unit *inspection.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.ID] = *unit
	return nil
}

// Update rewrites a unit.
func (r *UnitRepository) Update(_ context.Context, _ *sql.Tx, unit *inspection.Unit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.units[unit.ID]; !ok {
		return inspection.ErrNotFound
	}
	r.units[unit.ID] = *unit
	return nil
}

// List returns every unit sorted by id.
func (r *UnitRepository) List(_ context.Context) ([]inspection.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	units := make([]inspection.Unit, 0, len(r.units))
	for _, unit := range r.units {
		units = append(units, unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units, nil
}

// CylinderRepository is an in-memory cylinder store for tests.
type CylinderRepository struct {
	mu        sync.Mutex
	cylinders map[string]inspection.Cylinder
}

// NewCylinderRepository constructs an empty store.
func NewCylinderRepository() *CylinderRepository {
	return &CylinderRepository{cylinders: make(map[string]inspection.Cylinder)}
}

// Seed inserts a cylinder directly.
func (r *CylinderRepository) Seed(cylinder inspection.Cylinder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cylinders[cylinder.ID] = cylinder
}

// Get fetches a cylinder by id.
func (r *CylinderRepository) Get(_ context.Context, id string) (*inspection.Cylinder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cylinder, ok := r.cylinders[id]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	copied := cylinder
	return &copied, nil
}

// GetForUpdate fetches a cylinder; the tx is ignored.
func (r *CylinderRepository) GetForUpdate(ctx context.Context, _ *sql.Tx, id string) (*inspection.Cylinder, error) {
	return r.Get(ctx, id)
}

// Create inserts a cylinder.
func (r *CylinderRepository) Create(_ context.Context, _ *sql.Tx, cylinder *inspection.Cylinder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cylinders[cylinder.ID] = *cylinder
	return nil
}

// Update rewrites a cylinder.
func (r *CylinderRepository) Update(_ context.Context, _ *sql.Tx, cylinder *inspection.Cylinder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cylinders[cylinder.ID]; !ok {
		return inspection.ErrNotFound
	}
	r.cylinders[cylinder.ID] = *cylinder
	return nil
}

// RecordRepository is an in-memory record store for tests.
type RecordRepository struct {
	mu      sync.Mutex
	records []inspection.InspectionRecord
}

// NewRecordRepository constructs an empty store.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{}
}

// Insert appends a record.
func (r *RecordRepository) Insert(_ context.Context, _ *sql.Tx, record *inspection.InspectionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

// Get fetches one record by id.
func (r *RecordRepository) Get(_ context.Context, id string) (*inspection.InspectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.ID == id {
			copied := record
			return &copied, nil
		}
	}
	return nil, inspection.ErrNotFound
}

// ListByUnit lists a unit's records, newest first.
func (r *RecordRepository) ListByUnit(_ context.Context, unitID string, limit int) ([]inspection.InspectionRecord, error) {
	return r.list(func(rec inspection.InspectionRecord) bool { return rec.UnitID == unitID }, limit)
}

// ListByCylinder lists a cylinder's records, newest first.
func (r *RecordRepository) ListByCylinder(_ context.Context, cylinderID string, limit int) ([]inspection.InspectionRecord, error) {
	return r.list(func(rec inspection.InspectionRecord) bool { return rec.CylinderID == cylinderID }, limit)
}

// All returns every stored record.
func (r *RecordRepository) All() []inspection.InspectionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inspection.InspectionRecord, len(r.records))
	copy(out, r.records)
	return out
}

func (r *RecordRepository) list(match func(inspection.InspectionRecord) bool, limit int) ([]inspection.InspectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inspection.InspectionRecord
	for _, record := range r.records {
		if match(record) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
