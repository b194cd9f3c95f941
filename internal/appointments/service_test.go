package appointments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-booking/internal/auth"
	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/doctors"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/pricing"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*Appointment
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]*Appointment)}
}

func (m *memoryRepo) Create(ctx context.Context, appt *Appointment, resolve PatientResolverFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appt.PatientID == uuid.Nil {
		id, err := resolve(ctx, nil)
		if err != nil {
			return err
		}
		appt.PatientID = id
	}
	for _, existing := range m.items {
		if existing.Status == StatusPending && existing.DoctorID == appt.DoctorID &&
			existing.Date.Equal(appt.Date) && existing.Time == appt.Time {
			return ErrSlotUnavailable
		}
	}
	m.nextID++
	appt.ID = m.nextID
	appt.CreatedAt = time.Date(2025, 12, 8, 12, 0, 0, 0, time.UTC)
	stored := *appt
	m.items[appt.ID] = &stored
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *appt
	return &out, nil
}

func (m *memoryRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for id := m.nextID; id > 0; id-- {
		if appt, ok := m.items[id]; ok && appt.PatientID == patientID {
			out = append(out, *appt)
		}
	}
	return out, nil
}

func (m *memoryRepo) PendingSlots(_ context.Context, doctorID int64, from time.Time) ([]scheduling.BookedSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []scheduling.BookedSlot
	for _, appt := range m.items {
		if appt.DoctorID == doctorID && appt.Status == StatusPending && !appt.Date.Before(from) {
			out = append(out, scheduling.BookedSlot{Date: appt.Date, Time: appt.Time})
		}
	}
	return out, nil
}

func (m *memoryRepo) Reschedule(_ context.Context, id int64, date time.Time, at scheduling.TimeOfDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok || appt.Status != StatusPending {
		return ErrNotPending
	}
	appt.Date, appt.Time = date, at
	return nil
}

func (m *memoryRepo) Cancel(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok || appt.Status != StatusPending {
		return ErrNotPending
	}
	appt.Status = StatusCancelled
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, update StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.items[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if update.Status != nil {
		appt.Status = *update.Status
	}
	if update.IsPaid != nil {
		appt.IsPaid = *update.IsPaid
	}
	return nil
}

// fakeDoctors offers Tuesday 2025-12-09 09:00-11:00 minus pending bookings.
type fakeDoctors struct {
	repo *memoryRepo
}

func (f fakeDoctors) Doctor(_ context.Context, id int64) (*doctors.Doctor, error) {
	if id != 1 {
		return nil, doctors.ErrDoctorNotFound
	}
	return &doctors.Doctor{ID: 1, FirstName: "Anna", LastName: "Ivanova"}, nil
}

func (f fakeDoctors) Availability(ctx context.Context, doctorID int64) (scheduling.AvailabilitySchedule, error) {
	if doctorID != 1 {
		return nil, doctors.ErrDoctorNotFound
	}
	today := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)
	booked, err := f.repo.PendingSlots(ctx, doctorID, today)
	if err != nil {
		return nil, err
	}
	weekly := scheduling.WeeklySlotsFromIntervals([]scheduling.WorkInterval{
		{Weekday: scheduling.Tuesday, Start: scheduling.NewTimeOfDay(9, 0, 0), End: scheduling.NewTimeOfDay(11, 0, 0)},
	}, scheduling.DefaultSlotDuration, scheduling.IncludePartialSlot)
	return scheduling.ComputeAvailability(weekly, booked, today, 14), nil
}

type fakeCatalog struct{}

func (fakeCatalog) ServiceByID(_ context.Context, id int64) (*catalog.Service, error) {
	switch id {
	case 5:
		return &catalog.Service{
			ID: 5, Title: "ECG", TypePrice: decimal.NewFromInt(2400), Markup: decimal.NewFromInt(100),
			Links: []pricing.DoctorLink{{DoctorID: 1, ServiceID: 5, Markup: decimal.NewFromInt(500)}},
		}, nil
	case 6:
		return &catalog.Service{ID: 6, Title: "MRI", TypePrice: decimal.NewFromInt(9000)}, nil
	}
	return nil, catalog.ErrServiceNotFound
}

type fakePatients struct {
	known    map[string]uuid.UUID
	names    map[uuid.UUID]patients.Patient
	resolved int
}

func newFakePatients() *fakePatients {
	return &fakePatients{known: map[string]uuid.UUID{}, names: map[uuid.UUID]patients.Patient{}}
}

func (f *fakePatients) Get(_ context.Context, id uuid.UUID) (*patients.Patient, error) {
	p, ok := f.names[id]
	if !ok {
		return nil, patients.ErrPatientNotFound
	}
	return &p, nil
}

func (f *fakePatients) ResolveForBooking(_ context.Context, _ pgutil.Querier, in patients.Input) (uuid.UUID, error) {
	f.resolved++
	if in.Phone == "" {
		return uuid.Nil, patients.ErrInvalidPatient
	}
	if id, ok := f.known[in.Phone]; ok {
		if f.names[id].FirstName != in.FirstName {
			return uuid.Nil, patients.ErrDataDoesNotMatch
		}
		return id, nil
	}
	id := uuid.New()
	f.known[in.Phone] = id
	f.names[id] = patients.Patient{ID: id, Phone: in.Phone, FirstName: in.FirstName, LastName: in.LastName}
	return id, nil
}

type recordingNotifier struct {
	events []string
	last   notify.AppointmentEvent
}

func (r *recordingNotifier) AppointmentBooked(_ context.Context, evt notify.AppointmentEvent) error {
	r.events, r.last = append(r.events, "booked"), evt
	return nil
}

func (r *recordingNotifier) AppointmentCancelled(_ context.Context, evt notify.AppointmentEvent) error {
	r.events, r.last = append(r.events, "cancelled"), evt
	return nil
}

func (r *recordingNotifier) AppointmentRescheduled(_ context.Context, evt notify.AppointmentEvent) error {
	r.events, r.last = append(r.events, "rescheduled"), evt
	return nil
}

type fixture struct {
	svc      *Service
	repo     *memoryRepo
	patients *fakePatients
	notifier *recordingNotifier
	tokens   *auth.TokenIssuer
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	pats := newFakePatients()
	notifier := &recordingNotifier{}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	svc := NewService(Deps{
		Repo:     repo,
		Doctors:  fakeDoctors{repo: repo},
		Catalog:  fakeCatalog{},
		Patients: pats,
		Tokens:   tokens,
		Notifier: notifier,
		Metrics:  metrics.NewBookingMetrics(prometheus.NewRegistry()),
	})
	return &fixture{svc: svc, repo: repo, patients: pats, notifier: notifier, tokens: tokens}
}

func bookingForm(clock string) BookingForm {
	return BookingForm{
		DoctorID:  1,
		ServiceID: 5,
		Date:      "2025-12-09",
		Time:      clock,
		Patient:   patients.Input{Phone: "9001234567", FirstName: "Ivan", LastName: "Petrov", BirthDate: "1990-05-01"},
	}
}

func TestBookAnonymousRegistersPatient(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Book(context.Background(), uuid.Nil, bookingForm("09:30"))
	require.NoError(t, err)
	assert.Equal(t, "3000.00", result.Price)
	assert.Equal(t, "09:30:00", result.Appointment.Time)
	assert.Equal(t, StatusPending, result.Appointment.Status)
	assert.Equal(t, "Anna Ivanova", result.Appointment.Doctor.FullName)
	require.Len(t, result.Appointment.Services, 1)
	assert.Equal(t, "ECG", result.Appointment.Services[0].Title)
	assert.Equal(t, 1, f.patients.resolved)

	id, err := f.tokens.ParseAppointment(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Appointment.ID, id)

	assert.Equal(t, []string{"booked"}, f.notifier.events)
	assert.Equal(t, "Ivan Petrov", f.notifier.last.PatientName)
	assert.Equal(t, "3000.00", f.notifier.last.Total)
}

func TestBookLoggedInSkipsResolution(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	result, err := f.svc.Book(context.Background(), patientID, BookingForm{DoctorID: 1, ServiceID: 5, Date: "2025-12-09", Time: "10:00"})
	require.NoError(t, err)
	assert.Zero(t, f.patients.resolved)

	stored, err := f.repo.GetByID(context.Background(), result.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, patientID, stored.PatientID)
}

func TestBookRejectsTakenAndUnscheduledSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Book(ctx, uuid.Nil, bookingForm("09:30"))
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, uuid.New(), bookingForm("09:30"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = f.svc.Book(ctx, uuid.New(), bookingForm("11:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	form := bookingForm("09:00")
	form.Date = "2025-12-10"
	_, err = f.svc.Book(ctx, uuid.New(), form)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		form func(BookingForm) BookingForm
		want error
	}{
		{"missing doctor", func(b BookingForm) BookingForm { b.DoctorID = 0; return b }, ErrInvalidBooking},
		{"bad date", func(b BookingForm) BookingForm { b.Date = "09.12.2025"; return b }, ErrInvalidBooking},
		{"bad time", func(b BookingForm) BookingForm { b.Time = "half past nine"; return b }, ErrInvalidBooking},
		{"unknown service", func(b BookingForm) BookingForm { b.ServiceID = 99; return b }, catalog.ErrServiceNotFound},
		{"service not offered", func(b BookingForm) BookingForm { b.ServiceID = 6; return b }, catalog.ErrServiceNotOffered},
		{"patient mismatch", func(b BookingForm) BookingForm { b.Patient.FirstName = "Oleg"; return b }, patients.ErrDataDoesNotMatch},
	}

	_, err := f.svc.Book(ctx, uuid.Nil, bookingForm("10:30"))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, uuid.Nil, tt.form(bookingForm("09:00")))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestViewByToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.Book(ctx, uuid.Nil, bookingForm("09:00"))
	require.NoError(t, err)

	view, err := f.svc.View(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Appointment.ID, view.ID)
	assert.Equal(t, "3000.00", view.Price)

	_, err = f.svc.View(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestPatientCannotSeeOthersAppointments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	result, err := f.svc.Book(ctx, owner, bookingForm("09:00"))
	require.NoError(t, err)

	_, err = f.svc.GetForPatient(ctx, stranger, result.Appointment.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	_, err = f.svc.Cancel(ctx, stranger, result.Appointment.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	list, err := f.svc.ListForPatient(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = f.svc.ListForPatient(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRescheduleMovesSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.New()

	result, err := f.svc.Book(ctx, owner, bookingForm("09:00"))
	require.NoError(t, err)
	id := result.Appointment.ID

	_, err = f.svc.Reschedule(ctx, owner, id, RescheduleRequest{Date: "2025-12-09", Time: "09:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	view, err := f.svc.Reschedule(ctx, owner, id, RescheduleRequest{Date: "2025-12-16", Time: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "2025-12-16", view.Date)
	assert.Equal(t, "10:30:00", view.Time)
	assert.Equal(t, "2025-12-09", f.notifier.last.PreviousDate)
	assert.Equal(t, "09:00:00", f.notifier.last.PreviousTime)

	options, err := f.svc.RescheduleOptions(ctx, owner, id)
	require.NoError(t, err)
	assert.True(t, options.Contains("2025-12-09", "09:00:00"))
	assert.False(t, options.Contains("2025-12-16", "10:30:00"))
}

func TestCancelReleasesSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := uuid.New()

	result, err := f.svc.Book(ctx, owner, bookingForm("09:00"))
	require.NoError(t, err)

	view, err := f.svc.Cancel(ctx, owner, result.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, view.Status)

	_, err = f.svc.Cancel(ctx, owner, result.Appointment.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = f.svc.Reschedule(ctx, owner, result.Appointment.ID, RescheduleRequest{Date: "2025-12-09", Time: "10:00"})
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = f.svc.Book(ctx, uuid.New(), bookingForm("09:00"))
	assert.NoError(t, err)
	assert.Equal(t, []string{"booked", "cancelled", "booked"}, f.notifier.events)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.Book(ctx, uuid.New(), bookingForm("09:00"))
	require.NoError(t, err)
	id := result.Appointment.ID

	_, err = f.svc.UpdateStatus(ctx, id, StatusUpdate{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	pending := StatusPending
	_, err = f.svc.UpdateStatus(ctx, id, StatusUpdate{Status: &pending})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	completed, paid := StatusCompleted, true
	view, err := f.svc.UpdateStatus(ctx, id, StatusUpdate{Status: &completed, IsPaid: &paid})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, view.Status)
	assert.True(t, view.IsPaid)

	_, err = f.svc.UpdateStatus(ctx, 404, StatusUpdate{IsPaid: &paid})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
