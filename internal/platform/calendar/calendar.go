// Package calendar mirrors appointments onto a Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/turnos/turnos/internal/platform/locale"
	"github.com/turnos/turnos/internal/platform/secrets"
)

// Event statuses understood by the calendar API.
const (
	StatusTentative = "tentative"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// ErrNotConfigured is returned when no calendar id or credentials are set.
var ErrNotConfigured = errors.New("calendar is not configured")

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsEmail applies the loose address check used to decide on attendees.
func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

// Event is the provider-neutral shape of an appointment slot.
type Event struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
	AttendeeName  string
}

// Created identifies an inserted event.
type Created struct {
	ID       string
	HTMLLink string
}

type eventsAPI interface {
	Insert(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error)
	Patch(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error)
}

type serviceFactory func(ctx context.Context, sa *secrets.ServiceAccount, subject string) (eventsAPI, error)

// Config describes how to reach the calendar.
type Config struct {
	CalendarID      string
	SecretName      string
	ImpersonateUser string
}

// Client inserts and updates events. The underlying Google service is built
// on first use and reused for the life of the process; a failed build is
// retried on the next call.
type Client struct {
	cfg     Config
	secrets secrets.Provider
	factory serviceFactory

	mu  sync.Mutex
	api eventsAPI
}

func NewClient(cfg Config, provider secrets.Provider) *Client {
	return &Client{cfg: cfg, secrets: provider, factory: newGoogleService}
}

func (c *Client) events(ctx context.Context) (eventsAPI, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	if c.cfg.CalendarID == "" || c.cfg.SecretName == "" || c.secrets == nil {
		return nil, ErrNotConfigured
	}

	sa, err := secrets.LoadServiceAccount(ctx, c.secrets, c.cfg.SecretName)
	if err != nil {
		return nil, fmt.Errorf("load calendar credentials: %w", err)
	}
	api, err := c.factory(ctx, sa, c.cfg.ImpersonateUser)
	if err != nil {
		return nil, fmt.Errorf("build calendar client: %w", err)
	}
	c.api = api
	return api, nil
}

// InsertTentative creates a tentative event in the clinic time zone.
func (c *Client) InsertTentative(ctx context.Context, ev Event) (Created, error) {
	api, err := c.events(ctx)
	if err != nil {
		return Created{}, err
	}
	out, err := api.Insert(ctx, c.cfg.CalendarID, toGoogleEvent(ev))
	if err != nil {
		return Created{}, fmt.Errorf("insert calendar event: %w", err)
	}
	return Created{ID: out.Id, HTMLLink: out.HtmlLink}, nil
}

// SetStatus changes an existing event's status.
func (c *Client) SetStatus(ctx context.Context, eventID, status string) error {
	api, err := c.events(ctx)
	if err != nil {
		return err
	}
	if _, err := api.Patch(ctx, c.cfg.CalendarID, eventID, &gcal.Event{Status: status}); err != nil {
		return fmt.Errorf("patch calendar event %s: %w", eventID, err)
	}
	return nil
}

func toGoogleEvent(ev Event) *gcal.Event {
	out := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Status:      StatusTentative,
		Start: &gcal.EventDateTime{
			DateTime: locale.FormatISO(ev.Start),
			TimeZone: locale.TimeZoneName,
		},
		End: &gcal.EventDateTime{
			DateTime: locale.FormatISO(ev.End),
			TimeZone: locale.TimeZoneName,
		},
	}
	if IsEmail(ev.AttendeeEmail) {
		out.Attendees = []*gcal.EventAttendee{{
			Email:       ev.AttendeeEmail,
			DisplayName: ev.AttendeeName,
		}}
	}
	return out
}

type googleService struct {
	svc *gcal.Service
}

func newGoogleService(ctx context.Context, sa *secrets.ServiceAccount, subject string) (eventsAPI, error) {
	jwtCfg, err := google.JWTConfigFromJSON(sa.Raw, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	jwtCfg.Subject = subject

	// The token source outlives the request that triggered construction.
	httpClient := jwtCfg.Client(context.Background())
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return &googleService{svc: svc}, nil
}

func (g *googleService) Insert(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
}

func (g *googleService) Patch(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	return g.svc.Events.Patch(calendarID, eventID, ev).Context(ctx).Do()
}
