package study

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/turnos/turnos/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

const cols = `id, name, description, duration_minutes, honorario::text, active, created_at, updated_at`

func scan(row pgx.Row) (*Study, error) {
	var s Study
	var honorario *string
	if err := row.Scan(&s.StudyID, &s.Name, &s.Description, &s.DurationMinutes, &honorario,
		&s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	h, err := db.ParseDecimal(honorario)
	if err != nil {
		return nil, err
	}
	s.Honorario = h
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Study) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO studies (id, name, description, duration_minutes, honorario, active, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)`,
		s.StudyID, s.Name, s.Description, s.DurationMinutes, db.DecimalArg(s.Honorario), s.Active, s.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Study, error) {
	s, err := scan(r.q.QueryRow(ctx, `SELECT `+cols+` FROM studies WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *repoPG) List(ctx context.Context, includeInactive bool) ([]*Study, error) {
	sql := `SELECT ` + cols + ` FROM studies`
	if !includeInactive {
		sql += ` WHERE active`
	}
	sql += ` ORDER BY name`

	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()

	out := []*Study{}
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, s *Study) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE studies SET name = $2, description = $3, duration_minutes = $4,
			honorario = $5::numeric, active = $6, updated_at = $7
		WHERE id = $1`,
		s.StudyID, s.Name, s.Description, s.DurationMinutes, db.DecimalArg(s.Honorario), s.Active, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM studies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
