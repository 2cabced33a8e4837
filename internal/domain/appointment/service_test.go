package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnos/turnos/internal/platform/calendar"
	"github.com/turnos/turnos/internal/platform/locale"
)

type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment
	err   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) put(a *Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.appts[a.AppointmentID] = &cp
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if m.err != nil {
		return m.err
	}
	m.put(a)
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) filter(keep func(*Appointment) bool) []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Appointment{}
	for _, a := range m.appts {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime.Time) })
	return out
}

func (m *mockRepo) List(_ context.Context, q ListQuery) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		if a.StartTime.Before(q.From) || a.StartTime.After(q.To) {
			return false
		}
		return q.DoctorID == "" || (a.DoctorID != nil && *a.DoctorID == q.DoctorID)
	}), nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.appts, id)
	return nil
}

func (m *mockRepo) ListReminderDue(_ context.Context, from, to time.Time) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		return a.Status == StatusTentative && !a.ReminderSent && !a.StartTime.Before(from) && !a.StartTime.After(to)
	}), nil
}

func (m *mockRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.ReminderSent = true
	a.ReminderSentAt = &at
	return nil
}

func (m *mockRepo) ListAwaitingReply(_ context.Context) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool { return a.Status == StatusTentative && a.ReminderSent }), nil
}

func (m *mockRepo) SetStatus(_ context.Context, id uuid.UUID, status Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	if status == StatusConfirmed {
		a.ConfirmedAt = &at
	} else {
		a.CancelledAt = &at
	}
	return nil
}

func (m *mockRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, a := range m.appts {
		if a.ExpiresAt <= now.Unix() {
			delete(m.appts, id)
			n++
		}
	}
	return n, nil
}

type fakeCalendar struct {
	mu     sync.Mutex
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) InsertTentative(_ context.Context, ev calendar.Event) (calendar.Created, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return calendar.Created{}, f.err
	}
	f.events = append(f.events, ev)
	id := fmt.Sprintf("evt-%d", len(f.events))
	return calendar.Created{ID: id, HTMLLink: "https://calendar.example/" + id}, nil
}

type doctorNames map[string]string

func (d doctorNames) DoctorName(_ context.Context, id string) (string, error) {
	if n, ok := d[id]; ok {
		return n, nil
	}
	return "", errors.New("doctor not found")
}

type countingRecorder struct{ created map[string]int }

func (r *countingRecorder) AppointmentCreated(source string) { r.created[source]++ }

type fixture struct {
	svc  *Service
	repo *mockRepo
	cal  *fakeCalendar
	rec  *countingRecorder
}

func newFixture() fixture {
	f := fixture{
		repo: newMockRepo(),
		cal:  &fakeCalendar{},
		rec:  &countingRecorder{created: map[string]int{}},
	}
	f.svc = NewService(f.repo, f.cal, doctorNames{"doc1": "Dra. Gómez"}, f.rec, zerolog.Nop())
	return f
}

func strPtr(s string) *string { return &s }

func seed(repo *mockRepo, start time.Time, doctorID *string) *Appointment {
	a := &Appointment{
		AppointmentID: uuid.New(),
		PatientName:   "p",
		StartTime:     locale.NewTime(start),
		EndTime:       locale.NewTime(start.Add(SlotDuration)),
		DoctorID:      doctorID,
		Status:        StatusTentative,
		ExpiresAt:     start.Add(Retention).Unix(),
	}
	repo.put(a)
	return a
}

func TestService_Create(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	a, err := f.svc.Create(context.Background(), CreateRequest{
		PatientName: "Ana",
		Email:       "ana@example.com",
		Date:        "2026-02-13",
		Time:        "10:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusTentative || a.CalendarEventID != "evt-1" || a.CalendarLink == nil {
		t.Errorf("unexpected appointment: %+v", a)
	}
	if want := a.StartTime.Add(30 * 24 * time.Hour).Unix(); a.ExpiresAt != want {
		t.Errorf("expected expiry %d, got %d", want, a.ExpiresAt)
	}
	if !a.CreatedAt.Equal(fixed) {
		t.Errorf("unexpected createdAt: %v", a.CreatedAt)
	}
	if _, err := f.repo.GetByID(context.Background(), a.AppointmentID); err != nil {
		t.Errorf("expected appointment persisted: %v", err)
	}
	if len(f.cal.events) != 1 || f.cal.events[0].AttendeeEmail != "ana@example.com" {
		t.Errorf("unexpected calendar events: %+v", f.cal.events)
	}
	if f.rec.created["form"] != 1 {
		t.Errorf("expected form booking counted, got %v", f.rec.created)
	}
}

func TestService_Create_ValidationSkipsCalendar(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), CreateRequest{}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if len(f.cal.events) != 0 {
		t.Error("calendar must not be called for invalid requests")
	}
}

func TestService_Create_CalendarFailure(t *testing.T) {
	f := newFixture()
	f.cal.err = errors.New("secret not found")
	_, err := f.svc.Create(context.Background(), CreateRequest{PatientName: "x", StartTime: "2026-02-13T10:30:00-03:00"})
	if err == nil || err.Error() != "secret not found" {
		t.Fatalf("expected calendar error, got %v", err)
	}
	if len(f.repo.appts) != 0 {
		t.Error("nothing should be stored when the calendar fails")
	}
}

func TestService_Create_StoreFailureKeepsEvent(t *testing.T) {
	f := newFixture()
	f.repo.err = errors.New("connection refused")
	_, err := f.svc.Create(context.Background(), CreateRequest{PatientName: "x", StartTime: "2026-02-13T10:30:00-03:00"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.cal.events) != 1 {
		t.Error("calendar event is not rolled back")
	}
}

func TestParseListQuery(t *testing.T) {
	q, err := ParseListQuery("2026-02-01", "2026-02-28", "doc1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := locale.FormatISO(q.From); got != "2026-02-01T00:00:00-03:00" {
		t.Errorf("unexpected from: %s", got)
	}
	if got := locale.FormatISO(q.To); got != "2026-02-28T23:59:59-03:00" {
		t.Errorf("unexpected to: %s", got)
	}

	cases := []struct {
		from, to string
		want     error
	}{
		{"", "2026-02-01", ErrRangeMissing},
		{"2026-02-01", "", ErrRangeMissing},
		{"01/02/2026", "2026-02-28", ErrRangeFormat},
		{"2026-02-01", "2026-2-28", ErrRangeFormat},
		{"2026-03-01", "2026-02-28", ErrRangeOrder},
	}
	for _, c := range cases {
		if _, err := ParseListQuery(c.from, c.to, ""); !errors.Is(err, c.want) {
			t.Errorf("ParseListQuery(%q, %q): expected %v, got %v", c.from, c.to, c.want, err)
		}
	}
}

func TestParseListQuery_SameDay(t *testing.T) {
	if _, err := ParseListQuery("2026-02-13", "2026-02-13", ""); err != nil {
		t.Errorf("a single-day range is valid: %v", err)
	}
}

func TestService_List_SortedBoundedAndEnriched(t *testing.T) {
	f := newFixture()
	day := func(d, h int) time.Time { return time.Date(2026, 2, d, h, 0, 0, 0, locale.Zone) }
	seed(f.repo, day(14, 9), strPtr("doc1"))
	seed(f.repo, day(13, 0), strPtr("unknown"))
	seed(f.repo, day(13, 23), nil)
	seed(f.repo, day(12, 23), nil)
	seed(f.repo, day(15, 0), nil)

	q, _ := ParseListQuery("2026-02-13", "2026-02-14", "")
	list, err := f.svc.List(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 appointments in range, got %d", len(list))
	}
	for i := range list {
		if list[i].StartTime.Before(q.From) || list[i].StartTime.After(q.To) {
			t.Errorf("appointment %d outside range: %s", i, list[i].StartTime)
		}
		if i > 0 && list[i].StartTime.Before(list[i-1].StartTime.Time) {
			t.Errorf("appointments not sorted at %d", i)
		}
	}
	if list[0].DoctorName != nil {
		t.Errorf("failed lookup should yield null, got %q", *list[0].DoctorName)
	}
	if list[2].DoctorName == nil || *list[2].DoctorName != "Dra. Gómez" {
		t.Errorf("expected doctor name, got %v", list[2].DoctorName)
	}
}

func TestService_List_DoctorFilter(t *testing.T) {
	f := newFixture()
	start := time.Date(2026, 2, 13, 10, 0, 0, 0, locale.Zone)
	seed(f.repo, start, strPtr("doc1"))
	seed(f.repo, start, strPtr("doc2"))

	q, _ := ParseListQuery("2026-02-13", "2026-02-13", "doc2")
	list, _ := f.svc.List(context.Background(), q)
	if len(list) != 1 || *list[0].DoctorID != "doc2" {
		t.Errorf("expected only doc2, got %+v", list)
	}
}

func TestService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := seed(f.repo, time.Now(), nil)

	if err := f.svc.Delete(ctx, a.AppointmentID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Get(ctx, a.AppointmentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := f.svc.Delete(ctx, a.AppointmentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestService_PurgeExpired(t *testing.T) {
	f := newFixture()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	old := seed(f.repo, now.Add(-31*24*time.Hour), nil)
	recent := seed(f.repo, now.Add(-24*time.Hour), nil)

	n, err := f.svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged, got %d", n)
	}
	if _, err := f.repo.GetByID(context.Background(), old.AppointmentID); !errors.Is(err, ErrNotFound) {
		t.Error("expected expired appointment removed")
	}
	if _, err := f.repo.GetByID(context.Background(), recent.AppointmentID); err != nil {
		t.Error("expected recent appointment kept")
	}
}
