package obrasocial

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("obra social not found")

type Repository interface {
	Create(ctx context.Context, o *ObraSocial) error
	GetByID(ctx context.Context, id uuid.UUID) (*ObraSocial, error)
	List(ctx context.Context, f ListFilter) ([]*ObraSocial, error)
	Update(ctx context.Context, o *ObraSocial) error
	Delete(ctx context.Context, id uuid.UUID) error
}
