package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/turnos/turnos/internal/platform/calendar"
	"github.com/turnos/turnos/internal/platform/locale"
)

var (
	ErrRangeMissing = errors.New("from and to are required")
	ErrRangeFormat  = errors.New("from and to must be YYYY-MM-DD")
	ErrRangeOrder   = errors.New("from is after to")
)

// Calendar creates the tentative event that mirrors a booking.
type Calendar interface {
	InsertTentative(ctx context.Context, ev calendar.Event) (calendar.Created, error)
}

// DoctorNames resolves a doctor id to a display name.
type DoctorNames interface {
	DoctorName(ctx context.Context, id string) (string, error)
}

// Recorder counts bookings; *metrics.Collector satisfies it.
type Recorder interface {
	AppointmentCreated(source string)
}

const enrichConcurrency = 8

type Service struct {
	repo     Repository
	calendar Calendar
	doctors  DoctorNames
	recorder Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, cal Calendar, doctors DoctorNames, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		calendar: cal,
		doctors:  doctors,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Create books a tentative appointment. The calendar event is created first;
// if persisting fails afterwards the event is left in place.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	b, err := req.Resolve()
	if err != nil {
		return nil, err
	}

	created, err := s.calendar.InsertTentative(ctx, b.CalendarEvent())
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		AppointmentID:   uuid.New(),
		PatientName:     b.PatientName,
		PatientPhone:    b.PatientPhone,
		Email:           b.Email,
		StartTime:       locale.NewTime(b.Start),
		EndTime:         locale.NewTime(b.End()),
		Description:     b.Description,
		Study:           b.Study,
		Insurance:       b.Insurance,
		DoctorID:        b.DoctorID,
		Source:          b.Source,
		CalendarEventID: created.ID,
		Status:          StatusTentative,
		CreatedAt:       s.now().UTC(),
		ExpiresAt:       b.Start.Add(Retention).Unix(),
	}
	if created.HTMLLink != "" {
		link := created.HTMLLink
		a.CalendarLink = &link
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("save appointment (calendar event %s): %w", created.ID, err)
	}
	if s.recorder != nil {
		s.recorder.AppointmentCreated(b.Kind.String())
	}
	s.logger.Info().
		Str("appointment_id", a.AppointmentID.String()).
		Str("calendar_event_id", created.ID).
		Str("kind", b.Kind.String()).
		Msg("appointment created")
	return a, nil
}

// ParseListQuery validates YYYY-MM-DD bounds and expands them to the first
// and last second of those days on the clinic clock.
func ParseListQuery(from, to, doctorID string) (ListQuery, error) {
	if from == "" || to == "" {
		return ListQuery{}, ErrRangeMissing
	}
	fromDay, err := locale.ParseDay(from)
	if err != nil {
		return ListQuery{}, ErrRangeFormat
	}
	toDay, err := locale.ParseDay(to)
	if err != nil {
		return ListQuery{}, ErrRangeFormat
	}
	q := ListQuery{
		From:     fromDay,
		To:       toDay.Add(24*time.Hour - time.Second),
		DoctorID: doctorID,
	}
	if q.From.After(q.To) {
		return ListQuery{}, ErrRangeOrder
	}
	return q, nil
}

// List returns appointments in range with doctor names resolved
// concurrently. A failed lookup leaves the name null.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*Listed, error) {
	appts, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]*Listed, len(appts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, a := range appts {
		i, a := i, a
		out[i] = &Listed{Appointment: a}
		if a.DoctorID == nil || *a.DoctorID == "" || s.doctors == nil {
			continue
		}
		g.Go(func() error {
			name, err := s.doctors.DoctorName(gctx, *a.DoctorID)
			if err != nil {
				s.logger.Debug().Err(err).Str("doctor_id", *a.DoctorID).Msg("doctor name lookup failed")
				return nil
			}
			out[i].DoctorName = &name
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// PurgeExpired deletes appointments whose retention has elapsed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("expired appointments purged")
	}
	return n, nil
}
