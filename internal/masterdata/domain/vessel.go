package masterdata

import (
	"context"
	"errors"
	"time"
)

// Vessel is a client vessel that carries tracked safety equipment.
type Vessel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Island    string    `json:"island,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Client    string    `json:"client,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks vessel invariants.
func (v Vessel) Validate() error {
	if v.ID == "" {
		return errors.New("vessel: empty id")
	}
	if v.Name == "" {
		return errors.New("vessel: empty name")
	}
	return nil
}

// VesselRepository manages vessel persistence.
type VesselRepository interface {
	Get(ctx context.Context, id string) (*Vessel, error)
	Save(ctx context.Context, vessel *Vessel) error
	List(ctx context.Context) ([]Vessel, error)
}
