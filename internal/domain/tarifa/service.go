package tarifa

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingFields  = errors.New("estudioId, obraSocialId and precio are required")
	ErrNoFields       = errors.New("no fields to update")
	ErrNegativePrecio = errors.New("precio cannot be negative")
)

// ConflictError carries the row that already holds the requested pair. It
// matches ErrConflict under errors.Is. Existing may be nil when the pair was
// taken concurrently and could not be re-read.
type ConflictError struct {
	Existing *Tarifa
}

func (e *ConflictError) Error() string { return ErrConflict.Error() }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StudyNames resolves a study id to its display name.
type StudyNames interface {
	StudyName(ctx context.Context, id string) (string, error)
}

// ObraSocialNames resolves an obra social id to its display name.
type ObraSocialNames interface {
	ObraSocialName(ctx context.Context, id string) (string, error)
}

// enrichConcurrency bounds in-flight name lookups per list request.
const enrichConcurrency = 8

type Service struct {
	repo    Repository
	studies StudyNames
	obras   ObraSocialNames
	now     func() time.Time
}

func NewService(repo Repository, studies StudyNames, obras ObraSocialNames) *Service {
	return &Service{repo: repo, studies: studies, obras: obras, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Tarifa, error) {
	estudioID := strings.TrimSpace(req.EstudioID)
	obraSocialID := strings.TrimSpace(req.ObraSocialID)
	if estudioID == "" || obraSocialID == "" || req.Precio == nil {
		return nil, ErrMissingFields
	}
	if req.Precio.IsNegative() {
		return nil, ErrNegativePrecio
	}

	if err := s.ensureFree(ctx, estudioID, obraSocialID, uuid.Nil); err != nil {
		return nil, err
	}

	t := &Tarifa{
		TarifaID:     uuid.New(),
		EstudioID:    estudioID,
		ObraSocialID: obraSocialID,
		Precio:       *req.Precio,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.conflict(ctx, err, estudioID, obraSocialID)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tarifa, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the matching tarifas with study and insurer names resolved
// concurrently. Lookup failures leave the name null and never fail the list.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Enriched, error) {
	tarifas, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]*Enriched, len(tarifas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, t := range tarifas {
		i, t := i, t
		out[i] = &Enriched{Tarifa: *t}
		g.Go(func() error {
			out[i].NombreEstudio = lookup(gctx, s.studies, t.EstudioID)
			out[i].NombreObraSocial = lookupObra(gctx, s.obras, t.ObraSocialID)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func lookup(ctx context.Context, names StudyNames, id string) *string {
	if names == nil || id == "" {
		return nil
	}
	name, err := names.StudyName(ctx, id)
	if err != nil {
		return nil
	}
	return &name
}

func lookupObra(ctx context.Context, names ObraSocialNames, id string) *string {
	if names == nil || id == "" {
		return nil
	}
	name, err := names.ObraSocialName(ctx, id)
	if err != nil {
		return nil
	}
	return &name
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Tarifa, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.empty() {
		return nil, ErrNoFields
	}

	if req.EstudioID != nil {
		t.EstudioID = strings.TrimSpace(*req.EstudioID)
	}
	if req.ObraSocialID != nil {
		t.ObraSocialID = strings.TrimSpace(*req.ObraSocialID)
	}
	if t.EstudioID == "" || t.ObraSocialID == "" {
		return nil, ErrMissingFields
	}
	if req.Precio != nil {
		if req.Precio.IsNegative() {
			return nil, ErrNegativePrecio
		}
		t.Precio = *req.Precio
	}

	if req.changesKey() {
		if err := s.ensureFree(ctx, t.EstudioID, t.ObraSocialID, t.TarifaID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	t.UpdatedAt = &now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.conflict(ctx, err, t.EstudioID, t.ObraSocialID)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ensureFree fails with a ConflictError when another tarifa already holds
// the pair. self is excluded so an update can keep its own pair.
func (s *Service) ensureFree(ctx context.Context, estudioID, obraSocialID string, self uuid.UUID) error {
	existing, err := s.repo.FindByPair(ctx, estudioID, obraSocialID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.TarifaID == self {
		return nil
	}
	return &ConflictError{Existing: existing}
}

// conflict upgrades a repository ErrConflict, raised when a concurrent write
// won the unique index, into a ConflictError with the winning row.
func (s *Service) conflict(ctx context.Context, err error, estudioID, obraSocialID string) error {
	if !errors.Is(err, ErrConflict) {
		return err
	}
	existing, ferr := s.repo.FindByPair(ctx, estudioID, obraSocialID)
	if ferr != nil {
		return &ConflictError{}
	}
	return &ConflictError{Existing: existing}
}
