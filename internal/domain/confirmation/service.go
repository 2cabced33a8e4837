// Package confirmation handles patient replies to reminders: it finds the
// pending appointment for the sender, applies the reply and answers.
package confirmation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/domain/appointment"
	"github.com/turnos/turnos/internal/platform/calendar"
	"github.com/turnos/turnos/internal/platform/locale"
	"github.com/turnos/turnos/internal/platform/whatsapp"
)

const (
	replyNoMatch   = "No encontramos un turno pendiente de confirmar asociado a tu número. Si tenés alguna consulta, contactanos directamente."
	replyCancelled = "❌ Tu turno fue cancelado. Si necesitás reprogramar, contactanos. ¡Gracias!"
	replyUnclear   = `No pudimos entender tu respuesta. Por favor respondé "Confirmar" o "Cancelar".`
)

func replyConfirmed(start time.Time) string {
	return fmt.Sprintf("✅ ¡Tu turno fue confirmado! Te esperamos el %s a las %s. ¡Gracias!",
		locale.FormatLongDate(start), locale.FormatTime(start))
}

type Store interface {
	ListAwaitingReply(ctx context.Context) ([]*appointment.Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status appointment.Status, at time.Time) error
}

type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

// CalendarSync mirrors the patient's decision onto the calendar event.
type CalendarSync interface {
	SetStatus(ctx context.Context, eventID, status string) error
}

// Recorder counts replies; *metrics.Collector satisfies it.
type Recorder interface {
	WebhookMessage(intent string)
	StatusChanged(status string)
}

// Outcome is what a single inbound message resulted in.
type Outcome string

const (
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeUnclear   Outcome = "unclear"
)

type Service struct {
	store     Store
	messenger Messenger
	calendar  CalendarSync
	recorder  Recorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService wires the webhook logic. calendar and recorder may be nil.
func NewService(store Store, messenger Messenger, cal CalendarSync, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		messenger: messenger,
		calendar:  cal,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// FindPending returns the soonest tentative, already reminded appointment
// whose phone matches from on the trailing ten digits, or nil.
func (s *Service) FindPending(ctx context.Context, from string) (*appointment.Appointment, error) {
	appts, err := s.store.ListAwaitingReply(ctx)
	if err != nil {
		return nil, err
	}
	var best *appointment.Appointment
	for _, a := range appts {
		if !locale.PhonesMatch(a.PatientPhone, from) {
			continue
		}
		if best == nil || a.StartTime.Before(best.StartTime.Time) {
			best = a
		}
	}
	return best, nil
}

// Handle applies one inbound message. The reply is always attempted; a
// failed reply is logged, not returned. Errors are for store failures only.
func (s *Service) Handle(ctx context.Context, msg whatsapp.Inbound) (Outcome, error) {
	log := s.logger.With().Str("from", msg.From).Str("message_id", msg.ID).Logger()

	appt, err := s.FindPending(ctx, msg.From)
	if err != nil {
		return "", fmt.Errorf("find pending appointment: %w", err)
	}
	if appt == nil {
		s.reply(ctx, log, msg.From, replyNoMatch)
		s.countMessage("no_match")
		return OutcomeNoMatch, nil
	}
	log = log.With().Str("appointment_id", appt.AppointmentID.String()).Logger()

	intent := ParseIntent(msg.Text)
	s.countMessage(string(intent))

	switch intent {
	case IntentConfirm:
		if err := s.transition(ctx, log, appt, appointment.StatusConfirmed, calendar.StatusConfirmed); err != nil {
			return "", err
		}
		s.reply(ctx, log, msg.From, replyConfirmed(appt.StartTime.Time))
		return OutcomeConfirmed, nil

	case IntentCancel:
		if err := s.transition(ctx, log, appt, appointment.StatusCancelled, calendar.StatusCancelled); err != nil {
			return "", err
		}
		s.reply(ctx, log, msg.From, replyCancelled)
		return OutcomeCancelled, nil

	default:
		s.reply(ctx, log, msg.From, replyUnclear)
		return OutcomeUnclear, nil
	}
}

func (s *Service) transition(ctx context.Context, log zerolog.Logger, appt *appointment.Appointment, status appointment.Status, eventStatus string) error {
	if err := s.store.SetStatus(ctx, appt.AppointmentID, status, s.now().UTC()); err != nil {
		return fmt.Errorf("set status %s: %w", status, err)
	}
	if s.recorder != nil {
		s.recorder.StatusChanged(string(status))
	}
	log.Info().Str("status", string(status)).Msg("appointment updated from patient reply")

	if s.calendar != nil && appt.CalendarEventID != "" {
		if err := s.calendar.SetStatus(ctx, appt.CalendarEventID, eventStatus); err != nil {
			log.Warn().Err(err).Str("calendar_event_id", appt.CalendarEventID).Msg("calendar status sync failed")
		}
	}
	return nil
}

func (s *Service) reply(ctx context.Context, log zerolog.Logger, to, body string) {
	if err := s.messenger.SendText(ctx, to, body); err != nil {
		log.Error().Err(err).Msg("reply failed")
	}
}

func (s *Service) countMessage(intent string) {
	if s.recorder != nil {
		s.recorder.WebhookMessage(intent)
	}
}
