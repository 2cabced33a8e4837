package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/turnos/turnos/internal/platform/db/dbtest"
	"github.com/turnos/turnos/internal/platform/locale"
)

// pgAppt builds a tentative appointment starting at start that expires one
// retention period later, as the service would write it.
func pgAppt(start time.Time, doctorID string) *Appointment {
	start = start.Truncate(time.Second)
	a := &Appointment{
		AppointmentID:   uuid.New(),
		PatientName:     "Ana Pérez",
		PatientPhone:    "1122334455",
		StartTime:       locale.NewTime(start),
		EndTime:         locale.NewTime(start.Add(SlotDuration)),
		Status:          StatusTentative,
		CalendarEventID: "evt-" + uuid.NewString(),
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
		ExpiresAt:       start.Add(Retention).Unix(),
	}
	if doctorID != "" {
		a.DoctorID = &doctorID
	}
	return a
}

func createAll(t *testing.T, repo Repository, appts ...*Appointment) {
	t.Helper()
	for _, a := range appts {
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("create %s: %v", a.AppointmentID, err)
		}
	}
}

func ids(appts []*Appointment) []uuid.UUID {
	out := make([]uuid.UUID, len(appts))
	for i, a := range appts {
		out[i] = a.AppointmentID
	}
	return out
}

func TestRepoPG_ListReminderDue(t *testing.T) {
	repo := NewRepoPG(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	inWindow := pgAppt(now.Add(48*time.Hour), "")
	tooLate := pgAppt(now.Add(50*time.Hour), "")
	reminded := pgAppt(now.Add(48*time.Hour), "")
	confirmed := pgAppt(now.Add(48*time.Hour), "")
	confirmed.Status = StatusConfirmed
	createAll(t, repo, inWindow, tooLate, reminded, confirmed)
	if err := repo.MarkReminderSent(ctx, reminded.AppointmentID, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	due, err := repo.ListReminderDue(ctx, now.Add(47*time.Hour), now.Add(49*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 || due[0].AppointmentID != inWindow.AppointmentID {
		t.Fatalf("expected only the 48h appointment, got %v", ids(due))
	}
	if due[0].ReminderSent {
		t.Error("expected reminder flag unset on candidate")
	}
}

func TestRepoPG_MarkReminderSent(t *testing.T) {
	repo := NewRepoPG(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	soon := pgAppt(now.Add(48*time.Hour), "")
	later := pgAppt(now.Add(72*time.Hour), "")
	quiet := pgAppt(now.Add(24*time.Hour), "")
	createAll(t, repo, later, soon, quiet)

	for _, a := range []*Appointment{later, soon} {
		if err := repo.MarkReminderSent(ctx, a.AppointmentID, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := repo.MarkReminderSent(ctx, uuid.New(), now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}

	got, err := repo.GetByID(ctx, soon.AppointmentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ReminderSent || got.ReminderSentAt == nil || !got.ReminderSentAt.Equal(now) {
		t.Errorf("expected reminder stamped at %s, got %v / %v", now, got.ReminderSent, got.ReminderSentAt)
	}

	awaiting, err := repo.ListAwaitingReply(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{soon.AppointmentID, later.AppointmentID}
	gotIDs := ids(awaiting)
	if len(gotIDs) != len(want) || gotIDs[0] != want[0] || gotIDs[1] != want[1] {
		t.Errorf("expected %v soonest first, got %v", want, gotIDs)
	}
}

func TestRepoPG_ListBoundsAndOrder(t *testing.T) {
	repo := NewRepoPG(dbtest.Open(t))
	ctx := context.Background()

	day := time.Now().In(locale.Zone).AddDate(0, 0, 10).Format("2006-01-02")
	midnight, err := locale.ParseDay(day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := pgAppt(midnight, "dr-1")
	noon := pgAppt(midnight.Add(12*time.Hour), "dr-2")
	last := pgAppt(midnight.Add(24*time.Hour-time.Second), "dr-1")
	before := pgAppt(midnight.Add(-time.Second), "dr-1")
	after := pgAppt(midnight.Add(24*time.Hour), "dr-1")
	createAll(t, repo, last, after, noon, before, first)

	q, err := ParseListQuery(day, day, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.List(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uuid.UUID{first.AppointmentID, noon.AppointmentID, last.AppointmentID}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %d appointments in range, got %d", len(want), len(gotIDs))
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], gotIDs[i])
		}
	}

	q.DoctorID = "dr-1"
	got, err = repo.List(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].AppointmentID != first.AppointmentID || got[1].AppointmentID != last.AppointmentID {
		t.Errorf("expected dr-1 boundary appointments, got %v", ids(got))
	}
}

func TestRepoPG_ExpiredHidden(t *testing.T) {
	repo := NewRepoPG(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	gone := pgAppt(now.Add(2*time.Hour), "")
	gone.ExpiresAt = now.Add(-time.Minute).Unix()
	kept := pgAppt(now.Add(3*time.Hour), "")
	createAll(t, repo, gone, kept)

	if _, err := repo.GetByID(ctx, gone.AppointmentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired row hidden from GetByID, got %v", err)
	}

	q := ListQuery{From: now, To: now.Add(24 * time.Hour)}
	got, err := repo.List(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].AppointmentID != kept.AppointmentID {
		t.Errorf("expected only the live appointment, got %v", ids(got))
	}

	due, err := repo.ListReminderDue(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 || due[0].AppointmentID != kept.AppointmentID {
		t.Errorf("expected expired row hidden from reminder candidates, got %v", ids(due))
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row purged, got %d", n)
	}
	if _, err := repo.GetByID(ctx, kept.AppointmentID); err != nil {
		t.Errorf("expected live appointment to survive the purge, got %v", err)
	}
}

func TestRepoPG_SetStatus(t *testing.T) {
	repo := NewRepoPG(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	toConfirm := pgAppt(now.Add(48*time.Hour), "")
	toCancel := pgAppt(now.Add(49*time.Hour), "")
	createAll(t, repo, toConfirm, toCancel)

	if err := repo.SetStatus(ctx, toConfirm.AppointmentID, StatusConfirmed, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := repo.GetByID(ctx, toConfirm.AppointmentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
	if got.ConfirmedAt == nil || !got.ConfirmedAt.Equal(now) {
		t.Errorf("expected confirmed_at %s, got %v", now, got.ConfirmedAt)
	}
	if got.CancelledAt != nil {
		t.Errorf("expected cancelled_at unset, got %v", got.CancelledAt)
	}

	if err := repo.SetStatus(ctx, toCancel.AppointmentID, StatusCancelled, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = repo.GetByID(ctx, toCancel.AppointmentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled || got.CancelledAt == nil || !got.CancelledAt.Equal(now) {
		t.Errorf("expected CANCELLED stamped at %s, got %s / %v", now, got.Status, got.CancelledAt)
	}
	if got.ConfirmedAt != nil {
		t.Errorf("expected confirmed_at unset, got %v", got.ConfirmedAt)
	}

	if err := repo.SetStatus(ctx, toCancel.AppointmentID, StatusTentative, now); err == nil {
		t.Error("expected error moving back to TENTATIVE")
	}
	if err := repo.SetStatus(ctx, uuid.New(), StatusConfirmed, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}
