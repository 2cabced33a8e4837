package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnos/turnos/internal/platform/locale"
)

type Status string

const (
	StatusTentative Status = "TENTATIVE"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

const (
	// SlotDuration is the fixed length of every appointment.
	SlotDuration = 30 * time.Minute
	// Retention is how long a record is kept after its start time.
	Retention = 30 * 24 * time.Hour
)

// Appointment is a booked slot. StartTime and EndTime serialize in UTC-3;
// ExpiresAt is epoch seconds after which the row is hidden and later purged.
type Appointment struct {
	AppointmentID   uuid.UUID   `json:"appointmentId"`
	PatientName     string      `json:"patientName"`
	PatientPhone    string      `json:"patientPhone"`
	Email           *string     `json:"email,omitempty"`
	StartTime       locale.Time `json:"startTime"`
	EndTime         locale.Time `json:"endTime"`
	Description     *string     `json:"description,omitempty"`
	Study           *string     `json:"study,omitempty"`
	Insurance       *string     `json:"insurance,omitempty"`
	DoctorID        *string     `json:"doctorId,omitempty"`
	Source          *string     `json:"source,omitempty"`
	CalendarEventID string      `json:"calendarEventId"`
	CalendarLink    *string     `json:"calendarLink,omitempty"`
	Status          Status      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	ExpiresAt       int64       `json:"expiresAt"`
	ReminderSent    bool        `json:"reminderSent"`
	ReminderSentAt  *time.Time  `json:"reminderSentAt,omitempty"`
	ConfirmedAt     *time.Time  `json:"confirmedAt,omitempty"`
	CancelledAt     *time.Time  `json:"cancelledAt,omitempty"`
}

// Listed is an appointment as returned by List, with the doctor's name
// resolved when possible.
type Listed struct {
	*Appointment
	DoctorName *string `json:"doctorName"`
}

// ListQuery is a validated list request. From and To bound start_time
// inclusively.
type ListQuery struct {
	From     time.Time
	To       time.Time
	DoctorID string
}
