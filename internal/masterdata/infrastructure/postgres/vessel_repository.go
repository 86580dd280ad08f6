package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "github.com/azorean79/gestor-naval-pro-sub005/internal/masterdata/domain"
)

const defaultVesselsTable = "vessels"

// VesselRepository is a Postgres implementation for vessels.
type VesselRepository struct {
	db    *sql.DB
	table string
}

// NewVesselRepository constructs a repository.
func NewVesselRepository(db *sql.DB, opts ...VesselOption) *VesselRepository {
	repo := &VesselRepository{db: db, table: defaultVesselsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// VesselOption configures the repository.
type VesselOption func(*VesselRepository)

// WithVesselTable overrides the default table name.
func WithVesselTable(table string) VesselOption {
	return func(repo *VesselRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a vessel by id. Missing vessels return nil, nil.
func (r *VesselRepository) Get(ctx context.Context, id string) (*masterdata.Vessel, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vessel repo: nil db")
	}
	if id == "" {
		return nil, errors.New("vessel repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, name, island, kind, client, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var vessel masterdata.Vessel
	var island, kind, client sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&vessel.ID,
		&vessel.Name,
		&island,
		&kind,
		&client,
		&vessel.CreatedAt,
		&vessel.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	vessel.Island = island.String
	vessel.Kind = kind.String
	vessel.Client = client.String
	vessel.CreatedAt = vessel.CreatedAt.UTC()
	vessel.UpdatedAt = vessel.UpdatedAt.UTC()
	return &vessel, nil
}

// Save upserts a vessel.
func (r *VesselRepository) Save(ctx context.Context, vessel *masterdata.Vessel) error {
	if r == nil || r.db == nil {
		return errors.New("vessel repo: nil db")
	}
	if vessel == nil {
		return errors.New("vessel repo: nil vessel")
	}
	if err := vessel.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (id, name, island, kind, client, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	island = EXCLUDED.island,
	kind = EXCLUDED.kind,
	client = EXCLUDED.client,
	updated_at = EXCLUDED.updated_at`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		vessel.ID, vessel.Name, vessel.Island, vessel.Kind, vessel.Client,
		vessel.CreatedAt, vessel.UpdatedAt)
	return err
}

// List returns every vessel ordered by name.
func (r *VesselRepository) List(ctx context.Context) ([]masterdata.Vessel, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("vessel repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, island, kind, client, created_at, updated_at
FROM %s
ORDER BY name`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vessels []masterdata.Vessel
	for rows.Next() {
		var vessel masterdata.Vessel
		var island, kind, client sql.NullString
		if err := rows.Scan(&vessel.ID, &vessel.Name, &island, &kind, &client,
			&vessel.CreatedAt, &vessel.UpdatedAt); err != nil {
			return nil, err
		}
		vessel.Island = island.String
		vessel.Kind = kind.String
		vessel.Client = client.String
		vessels = append(vessels, vessel)
	}
	return vessels, rows.Err()
}

// Exists reports whether a vessel id resolves. Satisfies the provisioning
// vessel-check port.
func (r *VesselRepository) Exists(ctx context.Context, id string) (bool, error) {
	vessel, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return vessel != nil, nil
}
