package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/config"
	"github.com/turnos/turnos/internal/domain/appointment"
	"github.com/turnos/turnos/internal/domain/confirmation"
	"github.com/turnos/turnos/internal/domain/doctor"
	"github.com/turnos/turnos/internal/domain/obrasocial"
	"github.com/turnos/turnos/internal/domain/reminder"
	"github.com/turnos/turnos/internal/domain/study"
	"github.com/turnos/turnos/internal/domain/tarifa"
	"github.com/turnos/turnos/internal/platform/calendar"
	"github.com/turnos/turnos/internal/platform/jobs"
	"github.com/turnos/turnos/internal/platform/metrics"
	"github.com/turnos/turnos/internal/platform/secrets"
	"github.com/turnos/turnos/internal/platform/whatsapp"
)

// services holds one instance of every domain service for the process.
type services struct {
	doctors       *doctor.Service
	studies       *study.Service
	obrasSociales *obrasocial.Service
	tarifas       *tarifa.Service
	appointments  *appointment.Service
	reminders     *reminder.Checker
	confirmations *confirmation.Service
}

func newSecretsProvider(ctx context.Context, cfg *config.Config) (secrets.Provider, error) {
	switch cfg.GoogleSecretSource {
	case "file":
		return secrets.FileProvider{}, nil
	case "aws":
		return secrets.NewAWSProvider(ctx, cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("unknown secret source %q", cfg.GoogleSecretSource)
	}
}

func newServices(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, collector *metrics.Collector, logger zerolog.Logger) (*services, error) {
	provider, err := newSecretsProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("secrets provider: %w", err)
	}

	cal := calendar.NewClient(calendar.Config{
		CalendarID:      cfg.GoogleCalendarID,
		SecretName:      cfg.GoogleSecretName,
		ImpersonateUser: cfg.GoogleImpersonateUser,
	}, provider)
	wa := whatsapp.NewClient(whatsapp.Config{
		BaseURL:       cfg.WhatsAppBaseURL,
		APIVersion:    cfg.WhatsAppAPIVersion,
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
	})
	if !cfg.CalendarEnabled() {
		logger.Warn().Msg("calendar not configured; appointment creation will fail until GOOGLE_CALENDAR_ID and GOOGLE_SECRET_NAME are set")
	}

	doctorSvc := doctor.NewService(doctor.NewRepoPG(pool))
	studySvc := study.NewService(study.NewRepoPG(pool))
	obraSvc := obrasocial.NewService(obrasocial.NewRepoPG(pool))

	apptRepo := appointment.NewRepoPG(pool)
	apptLog := logger.With().Str("component", "appointments").Logger()

	return &services{
		doctors:       doctorSvc,
		studies:       studySvc,
		obrasSociales: obraSvc,
		tarifas:       tarifa.NewService(tarifa.NewRepoPG(pool), studyNames{studySvc}, obraSocialNames{obraSvc}),
		appointments:  appointment.NewService(apptRepo, cal, doctorNames{doctorSvc}, collector, apptLog),
		reminders: reminder.NewChecker(apptRepo, wa,
			reminder.Template{Name: cfg.WhatsAppTemplateName, Lang: cfg.WhatsAppTemplateLang},
			collector, logger.With().Str("component", "reminder").Logger()),
		confirmations: confirmation.NewService(apptRepo, wa, cal, collector,
			logger.With().Str("component", "webhook").Logger()),
	}, nil
}

// sweepJob deletes appointments past their retention period.
func sweepJob(svc *appointment.Service, interval time.Duration) jobs.Job {
	return jobs.Job{
		Name:     "sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := svc.PurgeExpired(ctx)
			return err
		},
	}
}

// doctorNames adapts the doctor service to appointment.DoctorNames.
type doctorNames struct {
	svc *doctor.Service
}

func (a doctorNames) DoctorName(ctx context.Context, id string) (string, error) {
	d, err := a.svc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

// studyNames adapts the study service to tarifa.StudyNames.
type studyNames struct {
	svc *study.Service
}

func (a studyNames) StudyName(ctx context.Context, id string) (string, error) {
	s, err := a.svc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Name, nil
}

// obraSocialNames adapts the obra social service to tarifa.ObraSocialNames.
// Tarifas store the insurer id as text, so ids that are not UUIDs resolve to
// not found.
type obraSocialNames struct {
	svc *obrasocial.Service
}

func (a obraSocialNames) ObraSocialName(ctx context.Context, id string) (string, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", obrasocial.ErrNotFound
	}
	o, err := a.svc.Get(ctx, uid)
	if err != nil {
		return "", err
	}
	return o.Nombre, nil
}
