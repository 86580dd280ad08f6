package masterdata

import (
	"context"
	"errors"
	"time"
)

// Brand is a raft manufacturer with its service interval. Brand rows override
// the built-in catalog periodicities at boot.
type Brand struct {
	Name             string    `json:"name"`
	Manufacturer     string    `json:"manufacturer,omitempty"`
	PeriodicityYears int       `json:"periodicity_years"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks brand invariants.
func (b Brand) Validate() error {
	if b.Name == "" {
		return errors.New("brand: empty name")
	}
	if b.PeriodicityYears <= 0 {
		return errors.New("brand: periodicity must be positive")
	}
	return nil
}

// BrandRepository manages brand persistence.
type BrandRepository interface {
	Get(ctx context.Context, name string) (*Brand, error)
	Save(ctx context.Context, brand *Brand) error
	List(ctx context.Context) ([]Brand, error)
}
