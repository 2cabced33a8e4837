package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/domain/appointment"
	"github.com/turnos/turnos/internal/platform/locale"
)

type memStore struct {
	appts  []*appointment.Appointment
	marked map[uuid.UUID]time.Time
}

func (s *memStore) ListReminderDue(_ context.Context, from, to time.Time) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range s.appts {
		if a.Status != appointment.StatusTentative || a.ReminderSent {
			continue
		}
		if a.StartTime.Before(from) || a.StartTime.After(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	if s.marked == nil {
		s.marked = map[uuid.UUID]time.Time{}
	}
	s.marked[id] = at
	for _, a := range s.appts {
		if a.AppointmentID == id {
			a.ReminderSent = true
		}
	}
	return nil
}

type sent struct {
	to     string
	name   string
	lang   string
	params []string
}

type fakeSender struct {
	sent    []sent
	failFor string
}

func (f *fakeSender) SendTemplate(_ context.Context, to, name, lang string, params ...string) error {
	if to == f.failFor {
		return errors.New("WhatsApp API error 400: invalid recipient")
	}
	f.sent = append(f.sent, sent{to, name, lang, params})
	return nil
}

type tally map[string]int

func (t tally) Reminder(result string) { t[result]++ }

func appt(start time.Time, phone string) *appointment.Appointment {
	return &appointment.Appointment{
		AppointmentID: uuid.New(),
		PatientName:   "Ana",
		PatientPhone:  phone,
		StartTime:     locale.NewTime(start),
		Status:        appointment.StatusTentative,
	}
}

var tmpl = Template{Name: "appointment_reminder", Lang: "es_AR"}

func TestRun_SelectsWindow(t *testing.T) {
	now := time.Date(2026, 2, 11, 13, 30, 0, 0, time.UTC)
	inWindow := appt(now.Add(48*time.Hour), "011-1234-5678")
	tooLate := appt(now.Add(50*time.Hour), "011-1234-5678")
	reminded := appt(now.Add(48*time.Hour), "011-1234-5678")
	reminded.ReminderSent = true
	confirmed := appt(now.Add(48*time.Hour), "011-1234-5678")
	confirmed.Status = appointment.StatusConfirmed

	store := &memStore{appts: []*appointment.Appointment{inWindow, tooLate, reminded, confirmed}}
	sender := &fakeSender{}
	rec := tally{}
	c := NewChecker(store, sender, tmpl, rec, zerolog.Nop())

	sum, err := c.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != (Summary{Found: 1, Sent: 1}) {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.to != "5491112345678" || msg.name != "appointment_reminder" || msg.lang != "es_AR" {
		t.Errorf("unexpected message: %+v", msg)
	}
	// 2026-02-13 13:30 UTC is Friday 10:30 in UTC-3.
	want := []string{"Ana", "viernes 13 de febrero", "10:30"}
	for i := range want {
		if msg.params[i] != want[i] {
			t.Errorf("param %d = %q, want %q", i, msg.params[i], want[i])
		}
	}
	if _, ok := store.marked[inWindow.AppointmentID]; !ok {
		t.Error("expected appointment marked as reminded")
	}
	if rec["sent"] != 1 {
		t.Errorf("expected sent counted, got %v", rec)
	}

	// A second pass finds nothing: the flag prevents duplicates.
	sum, _ = c.Run(context.Background(), now.Add(30*time.Minute))
	if sum.Found != 0 || len(sender.sent) != 1 {
		t.Errorf("expected no resend, got %+v", sum)
	}
}

func TestRun_WindowEdges(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	store := &memStore{appts: []*appointment.Appointment{
		appt(now.Add(47*time.Hour), "1111111111"),
		appt(now.Add(49*time.Hour), "2222222222"),
		appt(now.Add(46*time.Hour+59*time.Minute), "3333333333"),
	}}
	sum, _ := NewChecker(store, &fakeSender{}, tmpl, nil, zerolog.Nop()).Run(context.Background(), now)
	if sum.Found != 2 {
		t.Errorf("expected both inclusive edges, got %+v", sum)
	}
}

func TestRun_SkipsMissingPhoneAndContinuesOnFailure(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	noPhone := appt(now.Add(48*time.Hour), "")
	failing := appt(now.Add(48*time.Hour), "+54 9 11 0000-0000")
	ok := appt(now.Add(48*time.Hour), "1512345678")
	ok.PatientName = ""

	store := &memStore{appts: []*appointment.Appointment{noPhone, failing, ok}}
	sender := &fakeSender{failFor: "5491100000000"}
	rec := tally{}

	sum, err := NewChecker(store, sender, tmpl, rec, zerolog.Nop()).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != (Summary{Found: 3, Sent: 1, Skipped: 1, Failed: 1}) {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if len(sender.sent) != 1 || sender.sent[0].params[0] != "paciente" || sender.sent[0].to != "5491112345678" {
		t.Errorf("unexpected sends: %+v", sender.sent)
	}
	if _, marked := store.marked[failing.AppointmentID]; marked {
		t.Error("failed send must not be marked")
	}
	if rec["skipped"] != 1 || rec["failed"] != 1 || rec["sent"] != 1 {
		t.Errorf("unexpected tally: %v", rec)
	}
}

func TestJob(t *testing.T) {
	c := NewChecker(&memStore{}, &fakeSender{}, tmpl, nil, zerolog.Nop())
	job := c.Job(30 * time.Minute)
	if job.Name != "reminder" || job.Interval != 30*time.Minute || !job.RunOnStart {
		t.Errorf("unexpected job: %+v", job)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
