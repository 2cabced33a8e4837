package doctor

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/turnos/turnos/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

const cols = `id, name, specialty, active, created_at, updated_at`

func scan(row pgx.Row) (*Doctor, error) {
	var d Doctor
	if err := row.Scan(&d.DoctorID, &d.Name, &d.Specialty, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.DoctorID, d.Name, d.Specialty, d.Active, d.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Doctor, error) {
	d, err := scan(r.q.QueryRow(ctx, `SELECT `+cols+` FROM doctors WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repoPG) List(ctx context.Context, includeInactive bool) ([]*Doctor, error) {
	q := `SELECT ` + cols + ` FROM doctors`
	if !includeInactive {
		q += ` WHERE active`
	}
	q += ` ORDER BY name`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	out := []*Doctor{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE doctors SET name = $2, specialty = $3, active = $4, updated_at = $5
		WHERE id = $1`,
		d.DoctorID, d.Name, d.Specialty, d.Active, d.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
