package obrasocial

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turnos/turnos/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

const cols = `id, nombre, codigo, activa, created_at, updated_at`

func scan(row pgx.Row) (*ObraSocial, error) {
	var o ObraSocial
	if err := row.Scan(&o.ObraSocialID, &o.Nombre, &o.Codigo, &o.Activa, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) Create(ctx context.Context, o *ObraSocial) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO obras_sociales (id, nombre, codigo, activa, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ObraSocialID, o.Nombre, o.Codigo, o.Activa, o.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ObraSocial, error) {
	o, err := scan(r.q.QueryRow(ctx, `SELECT `+cols+` FROM obras_sociales WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return o, err
}

func (r *repoPG) List(ctx context.Context, f ListFilter) ([]*ObraSocial, error) {
	sql := `SELECT ` + cols + ` FROM obras_sociales`
	var args []interface{}
	if f.Activa != nil {
		sql += ` WHERE activa = $1`
		args = append(args, *f.Activa)
	}
	sql += ` ORDER BY nombre`

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list obras sociales: %w", err)
	}
	defer rows.Close()

	out := []*ObraSocial{}
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, o *ObraSocial) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE obras_sociales SET nombre = $2, codigo = $3, activa = $4, updated_at = $5
		WHERE id = $1`,
		o.ObraSocialID, o.Nombre, o.Codigo, o.Activa, o.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM obras_sociales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
