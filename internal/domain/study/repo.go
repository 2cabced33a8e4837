package study

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("study not found")

type Repository interface {
	Create(ctx context.Context, s *Study) error
	GetByID(ctx context.Context, id string) (*Study, error)
	List(ctx context.Context, includeInactive bool) ([]*Study, error)
	Update(ctx context.Context, s *Study) error
	Delete(ctx context.Context, id string) error
}
