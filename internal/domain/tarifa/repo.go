package tarifa

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("tarifa not found")
	// ErrConflict is returned when a (study, insurer) pair already has a price.
	ErrConflict = errors.New("tarifa already exists for this study and obra social")
)

type Repository interface {
	// Create and Update return ErrConflict when the pair is already taken.
	Create(ctx context.Context, t *Tarifa) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tarifa, error)
	FindByPair(ctx context.Context, estudioID, obraSocialID string) (*Tarifa, error)
	List(ctx context.Context, f ListFilter) ([]*Tarifa, error)
	Update(ctx context.Context, t *Tarifa) error
	Delete(ctx context.Context, id uuid.UUID) error
}
