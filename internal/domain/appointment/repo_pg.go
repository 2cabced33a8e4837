package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/turnos/turnos/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

const cols = `id, patient_name, COALESCE(patient_phone, ''), patient_email, start_time, end_time,
	description, study, insurance, doctor_id, source, status, calendar_event_id, calendar_link,
	created_at, expires_at, reminder_sent, reminder_sent_at, confirmed_at, cancelled_at`

// live hides rows past their expiry.
const live = `expires_at > EXTRACT(EPOCH FROM NOW())::bigint`

func scan(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	if err := row.Scan(&a.AppointmentID, &a.PatientName, &a.PatientPhone, &a.Email,
		&a.StartTime.Time, &a.EndTime.Time, &a.Description, &a.Study, &a.Insurance, &a.DoctorID,
		&a.Source, &status, &a.CalendarEventID, &a.CalendarLink, &a.CreatedAt, &a.ExpiresAt,
		&a.ReminderSent, &a.ReminderSentAt, &a.ConfirmedAt, &a.CancelledAt); err != nil {
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	out := []*Appointment{}
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO appointments (id, patient_name, patient_phone, patient_email, start_time, end_time,
			description, study, insurance, doctor_id, source, status, calendar_event_id, calendar_link,
			created_at, expires_at, reminder_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.AppointmentID, a.PatientName, a.PatientPhone, a.Email, a.StartTime.Time, a.EndTime.Time,
		a.Description, a.Study, a.Insurance, a.DoctorID, a.Source, string(a.Status), a.CalendarEventID,
		a.CalendarLink, a.CreatedAt, a.ExpiresAt, a.ReminderSent)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scan(r.q.QueryRow(ctx, `SELECT `+cols+` FROM appointments WHERE id = $1 AND `+live, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) List(ctx context.Context, q ListQuery) ([]*Appointment, error) {
	sql := `SELECT ` + cols + ` FROM appointments WHERE start_time BETWEEN $1 AND $2 AND ` + live
	args := []interface{}{q.From, q.To}
	if q.DoctorID != "" {
		sql += ` AND doctor_id = $3`
		args = append(args, q.DoctorID)
	}
	sql += ` ORDER BY start_time, id`

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collect(rows)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListReminderDue(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE status = $1 AND start_time BETWEEN $2 AND $3 AND NOT reminder_sent AND `+live+`
		ORDER BY start_time`,
		string(StatusTentative), from, to)
	if err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	return collect(rows)
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE appointments SET reminder_sent = TRUE, reminder_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListAwaitingReply(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+cols+` FROM appointments
		WHERE status = $1 AND reminder_sent AND `+live+`
		ORDER BY start_time`,
		string(StatusTentative))
	if err != nil {
		return nil, fmt.Errorf("list appointments awaiting reply: %w", err)
	}
	return collect(rows)
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	var column string
	switch status {
	case StatusConfirmed:
		column = "confirmed_at"
	case StatusCancelled:
		column = "cancelled_at"
	default:
		return fmt.Errorf("cannot set status %q", status)
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE appointments SET status = $2, `+column+` = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM appointments WHERE expires_at <= $1`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired appointments: %w", err)
	}
	return tag.RowsAffected(), nil
}
