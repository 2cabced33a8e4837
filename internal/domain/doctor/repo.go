package doctor

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("doctor not found")

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id string) (*Doctor, error)
	// List returns doctors ordered by name, optionally including inactive ones.
	List(ctx context.Context, includeInactive bool) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id string) error
}
