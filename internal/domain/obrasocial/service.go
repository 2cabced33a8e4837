package obrasocial

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNombreRequired = errors.New("nombre is required")
	ErrNoFields       = errors.New("no fields to update")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*ObraSocial, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		return nil, ErrNombreRequired
	}
	activa := true
	if req.Activa != nil {
		activa = *req.Activa
	}
	o := &ObraSocial{
		ObraSocialID: uuid.New(),
		Nombre:       nombre,
		Codigo:       req.Codigo,
		Activa:       activa,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ObraSocial, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*ObraSocial, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*ObraSocial, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.empty() {
		return nil, ErrNoFields
	}
	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if nombre == "" {
			return nil, ErrNombreRequired
		}
		o.Nombre = nombre
	}
	if req.Codigo != nil {
		o.Codigo = req.Codigo
	}
	if req.Activa != nil {
		o.Activa = *req.Activa
	}
	now := s.now().UTC()
	o.UpdatedAt = &now

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
