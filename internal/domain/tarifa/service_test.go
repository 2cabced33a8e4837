package tarifa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockRepo struct {
	mu      sync.Mutex
	tarifas map[uuid.UUID]*Tarifa
	// raceOnCreate simulates a concurrent insert winning the unique index.
	raceOnCreate *Tarifa
}

func newMockRepo() *mockRepo {
	return &mockRepo{tarifas: make(map[uuid.UUID]*Tarifa)}
}

func (m *mockRepo) Create(_ context.Context, t *Tarifa) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceOnCreate != nil {
		cp := *m.raceOnCreate
		m.tarifas[cp.TarifaID] = &cp
		return ErrConflict
	}
	for _, x := range m.tarifas {
		if x.EstudioID == t.EstudioID && x.ObraSocialID == t.ObraSocialID {
			return ErrConflict
		}
	}
	cp := *t
	m.tarifas[t.TarifaID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Tarifa, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tarifas[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) FindByPair(_ context.Context, estudioID, obraSocialID string) (*Tarifa, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tarifas {
		if t.EstudioID == estudioID && t.ObraSocialID == obraSocialID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]*Tarifa, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Tarifa{}
	for _, t := range m.tarifas {
		if f.EstudioID != "" && t.EstudioID != f.EstudioID {
			continue
		}
		if f.ObraSocialID != "" && t.ObraSocialID != f.ObraSocialID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EstudioID != out[j].EstudioID {
			return out[i].EstudioID < out[j].EstudioID
		}
		return out[i].ObraSocialID < out[j].ObraSocialID
	})
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, t *Tarifa) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tarifas[t.TarifaID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tarifas, id)
	return nil
}

type mapNames map[string]string

func (n mapNames) StudyName(_ context.Context, id string) (string, error) {
	if name, ok := n[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("study %s not found", id)
}

func (n mapNames) ObraSocialName(_ context.Context, id string) (string, error) {
	if name, ok := n[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("obra social %s not found", id)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	names := mapNames{"eco": "Ecografía", "osde": "OSDE"}
	return NewService(repo, names, names), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService()
	tf, err := svc.Create(context.Background(), CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("12500.50")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.TarifaID == uuid.Nil || !tf.Precio.Equal(decimal.RequireFromString("12500.5")) {
		t.Errorf("unexpected tarifa: %+v", tf)
	}
}

func TestService_Create_MissingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	cases := []CreateRequest{
		{ObraSocialID: "osde", Precio: price("1")},
		{EstudioID: "eco", Precio: price("1")},
		{EstudioID: "eco", ObraSocialID: "osde"},
	}
	for _, req := range cases {
		if _, err := svc.Create(ctx, req); !errors.Is(err, ErrMissingFields) {
			t.Errorf("expected ErrMissingFields for %+v, got %v", req, err)
		}
	}
}

func TestService_Create_ZeroPriceAllowed(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Create(context.Background(), CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("0")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_Create_DuplicatePair(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	first, _ := svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})

	_, err := svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("200")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Existing == nil || ce.Existing.TarifaID != first.TarifaID {
		t.Errorf("expected conflict to carry the existing tarifa, got %+v", ce)
	}
}

func TestService_Create_LostRace(t *testing.T) {
	svc, repo := newTestService()
	winner := &Tarifa{TarifaID: uuid.New(), EstudioID: "eco", ObraSocialID: "osde", Precio: decimal.NewFromInt(1)}
	repo.raceOnCreate = winner

	_, err := svc.Create(context.Background(), CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("2")})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Existing == nil || ce.Existing.TarifaID != winner.TarifaID {
		t.Errorf("expected winner in conflict, got %+v", ce.Existing)
	}
}

func TestService_Update_KeyChangeConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})
	other, _ := svc.Create(ctx, CreateRequest{EstudioID: "rx", ObraSocialID: "osde", Precio: price("50")})

	eco := "eco"
	if _, err := svc.Update(ctx, other.TarifaID, UpdateRequest{EstudioID: &eco}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestService_Update_SamePairIsNotConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tf, _ := svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})

	eco := "eco"
	updated, err := svc.Update(ctx, tf.TarifaID, UpdateRequest{EstudioID: &eco, Precio: price("150")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.Precio.Equal(decimal.NewFromInt(150)) || updated.UpdatedAt == nil {
		t.Errorf("unexpected tarifa: %+v", updated)
	}
}

func TestService_Update_NotFoundAndNoFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Update(ctx, uuid.New(), UpdateRequest{Precio: price("1")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	tf, _ := svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})
	if _, err := svc.Update(ctx, tf.TarifaID, UpdateRequest{}); !errors.Is(err, ErrNoFields) {
		t.Errorf("expected ErrNoFields, got %v", err)
	}
}

func TestService_List_Enriches(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})
	svc.Create(ctx, CreateRequest{EstudioID: "missing", ObraSocialID: "osde", Precio: price("100")})

	list, err := svc.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tarifas, got %d", len(list))
	}
	if list[0].NombreEstudio == nil || *list[0].NombreEstudio != "Ecografía" {
		t.Errorf("expected study name, got %v", list[0].NombreEstudio)
	}
	if list[1].NombreEstudio != nil {
		t.Errorf("expected null name for failed lookup, got %v", *list[1].NombreEstudio)
	}
	if list[1].NombreObraSocial == nil || *list[1].NombreObraSocial != "OSDE" {
		t.Errorf("expected obra social name, got %v", list[1].NombreObraSocial)
	}
}

func TestService_List_Filter(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "osde", Precio: price("100")})
	svc.Create(ctx, CreateRequest{EstudioID: "eco", ObraSocialID: "ioma", Precio: price("90")})
	svc.Create(ctx, CreateRequest{EstudioID: "rx", ObraSocialID: "ioma", Precio: price("40")})

	list, _ := svc.List(ctx, ListFilter{ObraSocialID: "ioma"})
	if len(list) != 2 {
		t.Errorf("expected 2 tarifas for ioma, got %d", len(list))
	}
	list, _ = svc.List(ctx, ListFilter{EstudioID: "eco", ObraSocialID: "ioma"})
	if len(list) != 1 {
		t.Errorf("expected 1 tarifa, got %d", len(list))
	}
}
