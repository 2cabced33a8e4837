package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("appointment not found")

// Repository stores appointments. Reads never return rows whose expiry has
// passed, even before the sweeper removes them.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// List returns appointments starting within q, ordered by start time.
	List(ctx context.Context, q ListQuery) ([]*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListReminderDue returns tentative, not yet reminded appointments
	// starting within [from, to].
	ListReminderDue(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
	// ListAwaitingReply returns tentative appointments that were already
	// reminded, soonest first.
	ListAwaitingReply(ctx context.Context) ([]*Appointment, error)
	// SetStatus moves an appointment to CONFIRMED or CANCELLED and stamps
	// the matching timestamp.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error

	// DeleteExpired removes rows whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
