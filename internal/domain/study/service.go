package study

import (
	"context"
	"errors"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrNoFields          = errors.New("no fields to update")
	ErrInvalidDuration   = errors.New("durationMinutes must be positive")
	ErrNegativeHonorario = errors.New("honorario cannot be negative")
)

const idLength = 8

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Study, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	duration := DefaultDurationMinutes
	if req.DurationMinutes != nil && *req.DurationMinutes != 0 {
		duration = *req.DurationMinutes
	}
	if duration < 0 {
		return nil, ErrInvalidDuration
	}
	if req.Honorario != nil && req.Honorario.IsNegative() {
		return nil, ErrNegativeHonorario
	}

	id, err := gonanoid.New(idLength)
	if err != nil {
		return nil, err
	}
	st := &Study{
		StudyID:         id,
		Name:            name,
		Description:     trimmed(req.Description),
		DurationMinutes: duration,
		Honorario:       req.Honorario,
		Active:          true,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Study, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Study, error) {
	return s.repo.List(ctx, includeInactive)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Study, error) {
	st, err := s.repo.GetByID(ctx, id)
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
		st.Name = name
	}
	if req.Description != nil {
		st.Description = trimmed(req.Description)
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, ErrInvalidDuration
		}
		st.DurationMinutes = *req.DurationMinutes
	}
	if req.Honorario != nil {
		if req.Honorario.IsNegative() {
			return nil, ErrNegativeHonorario
		}
		st.Honorario = req.Honorario
	}
	if req.Active != nil {
		st.Active = *req.Active
	}
	now := s.now().UTC()
	st.UpdatedAt = &now

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
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
