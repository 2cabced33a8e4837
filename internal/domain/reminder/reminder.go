// Package reminder sends the pre-appointment WhatsApp template to patients
// whose tentative appointment starts in about two days.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/domain/appointment"
	"github.com/turnos/turnos/internal/platform/jobs"
	"github.com/turnos/turnos/internal/platform/locale"
)

// The window is two hours wide so a run every 30 minutes sees each
// appointment several times; the reminder flag keeps it to one send.
const (
	WindowStart = 47 * time.Hour
	WindowEnd   = 49 * time.Hour
)

const defaultPatientName = "paciente"

type Store interface {
	ListReminderDue(ctx context.Context, from, to time.Time) ([]*appointment.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Sender interface {
	SendTemplate(ctx context.Context, to, name, lang string, params ...string) error
}

// Recorder counts outcomes; *metrics.Collector satisfies it.
type Recorder interface {
	Reminder(result string)
}

type Template struct {
	Name string
	Lang string
}

// Summary describes one pass.
type Summary struct {
	Found   int `json:"found"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Checker struct {
	store    Store
	sender   Sender
	tmpl     Template
	recorder Recorder
	logger   zerolog.Logger
}

func NewChecker(store Store, sender Sender, tmpl Template, recorder Recorder, logger zerolog.Logger) *Checker {
	return &Checker{store: store, sender: sender, tmpl: tmpl, recorder: recorder, logger: logger}
}

// Run sends reminders for appointments starting within [now+47h, now+49h].
// Sends are sequential. A failed send or mark is logged and the pass moves
// on; the only error returned is a failure to query candidates.
func (c *Checker) Run(ctx context.Context, now time.Time) (Summary, error) {
	from, to := now.Add(WindowStart), now.Add(WindowEnd)
	appts, err := c.store.ListReminderDue(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("query reminder window: %w", err)
	}

	sum := Summary{Found: len(appts)}
	for _, a := range appts {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		log := c.logger.With().Str("appointment_id", a.AppointmentID.String()).Logger()

		if strings.TrimSpace(a.PatientPhone) == "" {
			log.Warn().Msg("appointment has no phone, skipping reminder")
			sum.Skipped++
			c.record("skipped")
			continue
		}

		name := strings.TrimSpace(a.PatientName)
		if name == "" {
			name = defaultPatientName
		}
		phone := locale.NormalizePhone(a.PatientPhone)
		params := []string{name, locale.FormatDate(a.StartTime.Time), locale.FormatTime(a.StartTime.Time)}

		if err := c.sender.SendTemplate(ctx, phone, c.tmpl.Name, c.tmpl.Lang, params...); err != nil {
			log.Error().Err(err).Str("phone", phone).Msg("reminder send failed")
			sum.Failed++
			c.record("failed")
			continue
		}
		if err := c.store.MarkReminderSent(ctx, a.AppointmentID, time.Now().UTC()); err != nil {
			log.Error().Err(err).Msg("reminder sent but not marked")
			sum.Failed++
			c.record("failed")
			continue
		}
		sum.Sent++
		c.record("sent")
	}

	c.logger.Info().
		Time("window_start", from).
		Time("window_end", to).
		Int("found", sum.Found).
		Int("sent", sum.Sent).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("reminder pass finished")
	return sum, nil
}

func (c *Checker) record(result string) {
	if c.recorder != nil {
		c.recorder.Reminder(result)
	}
}

// Job wraps Run for the periodic runner.
func (c *Checker) Job(interval time.Duration) jobs.Job {
	return jobs.Job{
		Name:       "reminder",
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := c.Run(ctx, time.Now())
			return err
		},
	}
}
