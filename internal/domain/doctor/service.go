package doctor

import (
	"context"
	"errors"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrNoFields     = errors.New("no fields to update")
)

const idLength = 8

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Doctor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	id, err := gonanoid.New(idLength)
	if err != nil {
		return nil, err
	}
	d := &Doctor{
		DoctorID:  id,
		Name:      name,
		Specialty: trimmed(req.Specialty),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Doctor, error) {
	return s.repo.List(ctx, includeInactive)
}

// Update applies the provided fields to an existing doctor.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.empty() {
		return nil, ErrNoFields
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		d.Name = name
	}
	if req.Specialty != nil {
		d.Specialty = trimmed(req.Specialty)
	}
	if req.Active != nil {
		d.Active = *req.Active
	}
	now := s.now().UTC()
	d.UpdatedAt = &now

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
