package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/turnos/turnos/internal/platform/calendar"
	"github.com/turnos/turnos/internal/platform/locale"
)

// SourceGoogleForm marks requests coming from the public booking form.
const SourceGoogleForm = "google_form"

var (
	ErrMissingFields = errors.New("patientName and a start time are required")
	ErrInvalidStart  = errors.New("invalid start time")
)

// Kind discriminates the two accepted request shapes.
type Kind int

const (
	// KindDirect carries an explicit startTime.
	KindDirect Kind = iota
	// KindForm carries separate date and time fields on the clinic clock.
	KindForm
)

func (k Kind) String() string {
	if k == KindForm {
		return "form"
	}
	return "direct"
}

// CreateRequest is the union of both request shapes as they arrive on the
// wire. EndTime is accepted and ignored: the end is always derived from the start.
type CreateRequest struct {
	PatientName string `json:"patientName"`

	PatientPhone string `json:"patientPhone"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Description  string `json:"description"`

	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Study     string `json:"study"`
	Insurance string `json:"insurance"`
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Source    string `json:"source"`
}

func (r CreateRequest) Kind() Kind {
	if r.Source == SourceGoogleForm || (r.Date != "" && r.Time != "") {
		return KindForm
	}
	return KindDirect
}

// Booking is a resolved request: one start instant plus the fields to persist.
type Booking struct {
	Kind          Kind
	PatientName   string
	PatientPhone  string
	Start         time.Time
	Description   *string
	Email         *string
	Study         *string
	Insurance     *string
	DoctorID      *string
	Source        *string
	AttendeeEmail string
}

func (b Booking) End() time.Time {
	return b.Start.Add(SlotDuration)
}

// Resolve validates the request and normalizes it into a Booking.
func (r CreateRequest) Resolve() (Booking, error) {
	b := Booking{Kind: r.Kind(), PatientName: strings.TrimSpace(r.PatientName)}

	switch b.Kind {
	case KindForm:
		if b.PatientName == "" || r.Date == "" || r.Time == "" {
			return Booking{}, ErrMissingFields
		}
		start, err := locale.ParseLocalDateTime(r.Date, r.Time)
		if err != nil {
			return Booking{}, fmt.Errorf("%w: %v", ErrInvalidStart, err)
		}
		b.Start = start
		b.PatientPhone = r.Phone
		if b.PatientPhone == "" {
			b.PatientPhone = r.PatientPhone
		}
		b.Description = formDescription(r)
		b.Email = optional(r.Email)
		b.Study = optional(r.Study)
		b.Insurance = optional(r.Insurance)
		b.DoctorID = optional(r.DoctorID)
		source := r.Source
		if source == "" {
			source = SourceGoogleForm
		}
		b.Source = &source
		b.AttendeeEmail = strings.TrimSpace(r.Email)

	case KindDirect:
		if b.PatientName == "" || strings.TrimSpace(r.StartTime) == "" {
			return Booking{}, ErrMissingFields
		}
		start, err := parseStart(strings.TrimSpace(r.StartTime))
		if err != nil {
			return Booking{}, fmt.Errorf("%w: %v", ErrInvalidStart, err)
		}
		b.Start = start
		b.PatientPhone = r.PatientPhone
		b.Description = optional(r.Description)
		if strings.Contains(r.PatientPhone, "@") {
			b.AttendeeEmail = strings.TrimSpace(r.PatientPhone)
		}

	default:
		return Booking{}, fmt.Errorf("unknown request kind %d", b.Kind)
	}
	return b, nil
}

// CalendarEvent renders the booking as a tentative calendar event. The
// attendee is attached only when it looks like an email address.
func (b Booking) CalendarEvent() calendar.Event {
	ev := calendar.Event{
		Summary:     "Turno: " + b.PatientName,
		Description: "Turno médico para " + b.PatientName,
		Start:       b.Start,
		End:         b.End(),
	}
	if b.Description != nil && *b.Description != "" {
		ev.Description = *b.Description
	}
	if calendar.IsEmail(b.AttendeeEmail) {
		ev.AttendeeEmail = b.AttendeeEmail
		ev.AttendeeName = b.PatientName
	}
	return ev
}

func formDescription(r CreateRequest) *string {
	var lines []string
	if r.Study != "" {
		lines = append(lines, "Estudio: "+r.Study)
	}
	if r.Insurance != "" {
		lines = append(lines, "Obra social: "+r.Insurance)
	}
	if r.DoctorID != "" {
		lines = append(lines, "Doctor ID: "+r.DoctorID)
	}
	if r.Email != "" {
		lines = append(lines, "Email: "+r.Email)
	}
	if len(lines) == 0 {
		return nil
	}
	d := strings.Join(lines, "\n")
	return &d
}

// parseStart accepts RFC 3339, or a bare local timestamp read on the clinic clock.
func parseStart(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, locale.Zone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("startTime %q is not an ISO 8601 timestamp", s)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
