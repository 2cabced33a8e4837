package tarifa

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/turnos/turnos/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

const cols = `id, estudio_id, obra_social_id, precio::text, created_at, updated_at`

func scan(row pgx.Row) (*Tarifa, error) {
	var t Tarifa
	var precio string
	if err := row.Scan(&t.TarifaID, &t.EstudioID, &t.ObraSocialID, &precio, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(precio)
	if err != nil {
		return nil, fmt.Errorf("parse precio %q: %w", precio, err)
	}
	t.Precio = p
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Tarifa) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO tarifas (id, estudio_id, obra_social_id, precio, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5)`,
		t.TarifaID, t.EstudioID, t.ObraSocialID, t.Precio.String(), t.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Tarifa, error) {
	t, err := scan(r.q.QueryRow(ctx, `SELECT `+cols+` FROM tarifas WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *repoPG) FindByPair(ctx context.Context, estudioID, obraSocialID string) (*Tarifa, error) {
	t, err := scan(r.q.QueryRow(ctx,
		`SELECT `+cols+` FROM tarifas WHERE estudio_id = $1 AND obra_social_id = $2`,
		estudioID, obraSocialID))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*Tarifa, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.EstudioID != "" {
		args = append(args, f.EstudioID)
		where = append(where, fmt.Sprintf("estudio_id = $%d", len(args)))
	}
	if f.ObraSocialID != "" {
		args = append(args, f.ObraSocialID)
		where = append(where, fmt.Sprintf("obra_social_id = $%d", len(args)))
	}
	sql := `SELECT ` + cols + ` FROM tarifas`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY estudio_id, obra_social_id`

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list tarifas: %w", err)
	}
	defer rows.Close()

	out := []*Tarifa{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, t *Tarifa) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE tarifas SET estudio_id = $2, obra_social_id = $3, precio = $4::numeric, updated_at = $5
		WHERE id = $1`,
		t.TarifaID, t.EstudioID, t.ObraSocialID, t.Precio.String(), t.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM tarifas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
