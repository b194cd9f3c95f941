package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/doctors"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/pricing"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

var appointmentsTracer = otel.Tracer("clinic.internal.appointments")

// DoctorDirectory supplies doctors and their current availability.
type DoctorDirectory interface {
	Doctor(ctx context.Context, id int64) (*doctors.Doctor, error)
	Availability(ctx context.Context, doctorID int64) (scheduling.AvailabilitySchedule, error)
}

// ServiceCatalog loads services with their doctor links.
type ServiceCatalog interface {
	ServiceByID(ctx context.Context, id int64) (*catalog.Service, error)
}

// PatientDirectory resolves and loads patients.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*patients.Patient, error)
	ResolveForBooking(ctx context.Context, q pgutil.Querier, in patients.Input) (uuid.UUID, error)
}

// TokenIssuer signs appointment view tokens.
type TokenIssuer interface {
	IssueAppointment(appointmentID int64) (string, error)
	ParseAppointment(token string) (int64, error)
}

// StaffNotifier tells clinic staff about appointment changes.
type StaffNotifier interface {
	AppointmentBooked(ctx context.Context, evt notify.AppointmentEvent) error
	AppointmentCancelled(ctx context.Context, evt notify.AppointmentEvent) error
	AppointmentRescheduled(ctx context.Context, evt notify.AppointmentEvent) error
}

// Deps wires the Service collaborators. Notifier, Metrics and Logger are
// optional.
type Deps struct {
	Repo     Repository
	Doctors  DoctorDirectory
	Catalog  ServiceCatalog
	Patients PatientDirectory
	Tokens   TokenIssuer
	Notifier StaffNotifier
	Metrics  *metrics.BookingMetrics
	Logger   *logging.Logger
}

// Service implements the appointment workflows.
type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	catalog  ServiceCatalog
	patients PatientDirectory
	tokens   TokenIssuer
	notifier StaffNotifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

func NewService(deps Deps) *Service {
	if deps.Repo == nil || deps.Doctors == nil || deps.Catalog == nil || deps.Patients == nil || deps.Tokens == nil {
		panic("appointments: repo, doctors, catalog, patients and tokens required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Service{
		repo:     deps.Repo,
		doctors:  deps.Doctors,
		catalog:  deps.Catalog,
		patients: deps.Patients,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Book reserves a slot. patientID is uuid.Nil for anonymous callers, in which
// case the form's patient block is resolved or registered.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, form BookingForm) (*BookingResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("clinic.doctor_id", form.DoctorID),
		attribute.Int64("clinic.service_id", form.ServiceID),
		attribute.Bool("clinic.anonymous", patientID == uuid.Nil),
	)

	result, err := s.book(ctx, patientID, form)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking(bookingOutcome(err))
		return nil, err
	}
	s.metrics.ObserveBooking("booked")
	return result, nil
}

func (s *Service) book(ctx context.Context, patientID uuid.UUID, form BookingForm) (*BookingResult, error) {
	date, at, err := form.slot()
	if err != nil {
		return nil, err
	}

	svc, err := s.catalog.ServiceByID(ctx, form.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.Pricing().Offers(form.DoctorID) {
		return nil, catalog.ErrServiceNotOffered
	}
	doc, err := s.doctors.Doctor(ctx, form.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, form.DoctorID, date, at); err != nil {
		return nil, err
	}

	appt := &Appointment{
		Date:       date,
		Time:       at,
		Status:     StatusPending,
		DoctorID:   form.DoctorID,
		PatientID:  patientID,
		ServiceIDs: []int64{svc.ID},
	}
	resolve := func(ctx context.Context, q pgutil.Querier) (uuid.UUID, error) {
		return s.patients.ResolveForBooking(ctx, q, form.Patient)
	}
	if err := s.repo.Create(ctx, appt, resolve); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueAppointment(appt.ID)
	if err != nil {
		return nil, fmt.Errorf("appointments: issue token: %w", err)
	}

	view := s.viewWith(appt, doc, []catalog.Service{*svc})
	s.logger.WithContext(ctx).Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"date", view.Date,
		"time", view.Time,
	)
	s.notify(ctx, "booked", appt, view, "", "")

	return &BookingResult{Appointment: view, Price: view.Price, Token: token}, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, patients.ErrDataDoesNotMatch):
		return "patient_mismatch"
	case errors.Is(err, ErrInvalidBooking), errors.Is(err, patients.ErrInvalidPatient):
		return "invalid"
	default:
		return "error"
	}
}

func (s *Service) ensureAvailable(ctx context.Context, doctorID int64, date time.Time, at scheduling.TimeOfDay) error {
	schedule, err := s.doctors.Availability(ctx, doctorID)
	if err != nil {
		return err
	}
	if !schedule.Contains(scheduling.FormatDate(date), at.String()) {
		return ErrSlotUnavailable
	}
	return nil
}

// View resolves an appointment token to the appointment it grants.
func (s *Service) View(ctx context.Context, token string) (*View, error) {
	id, err := s.tokens.ParseAppointment(token)
	if err != nil {
		return nil, err
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, appt)
}

// ListForPatient returns the patient's appointments, newest first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]View, error) {
	list, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(list))
	for i := range list {
		v, err := s.view(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// GetForPatient returns one of the patient's appointments.
func (s *Service) GetForPatient(ctx context.Context, patientID uuid.UUID, id int64) (*View, error) {
	appt, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, appt)
}

// Reschedule moves a pending appointment to a currently free slot. The
// appointment's own slot is still booked while it is being moved.
func (s *Service) Reschedule(ctx context.Context, patientID uuid.UUID, id int64, req RescheduleRequest) (*View, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule")
	defer span.End()
	span.SetAttributes(attribute.Int64("clinic.appointment_id", id))

	appt, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrNotPending
	}
	date, at, err := parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAvailable(ctx, appt.DoctorID, date, at); err != nil {
		return nil, err
	}
	if err := s.repo.Reschedule(ctx, appt.ID, date, at); err != nil {
		span.RecordError(err)
		return nil, err
	}

	prevDate, prevTime := appt.Slot()
	appt.Date, appt.Time = date, at
	view, err := s.view(ctx, appt)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReschedule()
	s.logger.WithContext(ctx).Info("appointment rescheduled", "appointment_id", appt.ID, "from_date", prevDate, "to_date", view.Date)
	s.notify(ctx, "rescheduled", appt, *view, prevDate, prevTime)
	return view, nil
}

// Cancel cancels a pending appointment, releasing its slot.
func (s *Service) Cancel(ctx context.Context, patientID uuid.UUID, id int64) (*View, error) {
	appt, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrNotPending
	}
	if err := s.repo.Cancel(ctx, appt.ID); err != nil {
		return nil, err
	}
	appt.Status = StatusCancelled
	view, err := s.view(ctx, appt)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCancel()
	s.logger.WithContext(ctx).Info("appointment cancelled", "appointment_id", appt.ID)
	s.notify(ctx, "cancelled", appt, *view, "", "")
	return view, nil
}

// RescheduleOptions returns the doctor's availability for moving a pending
// appointment.
func (s *Service) RescheduleOptions(ctx context.Context, patientID uuid.UUID, id int64) (scheduling.AvailabilitySchedule, error) {
	appt, err := s.owned(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusPending {
		return nil, ErrNotPending
	}
	return s.doctors.Availability(ctx, appt.DoctorID)
}

// UpdateStatus is the staff-side change of status or payment flag.
func (s *Service) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*View, error) {
	if update.Status == nil && update.IsPaid == nil {
		return nil, fmt.Errorf("%w: status or is_paid required", ErrInvalidStatus)
	}
	if update.Status != nil && *update.Status != StatusCompleted && *update.Status != StatusCancelled {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *update.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		return nil, err
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).Info("appointment status updated", "appointment_id", id, "status", string(appt.Status), "is_paid", appt.IsPaid)
	return s.view(ctx, appt)
}

func (s *Service) owned(ctx context.Context, patientID uuid.UUID, id int64) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *Service) view(ctx context.Context, appt *Appointment) (*View, error) {
	doc, err := s.doctors.Doctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	services := make([]catalog.Service, 0, len(appt.ServiceIDs))
	for _, id := range appt.ServiceIDs {
		svc, err := s.catalog.ServiceByID(ctx, id)
		if err != nil {
			return nil, err
		}
		services = append(services, *svc)
	}
	v := s.viewWith(appt, doc, services)
	return &v, nil
}

func (s *Service) viewWith(appt *Appointment, doc *doctors.Doctor, services []catalog.Service) View {
	date, clock := appt.Slot()
	lines := make([]ServiceLine, 0, len(services))
	prices := make([]decimal.Decimal, 0, len(services))
	for i := range services {
		price := services[i].Pricing().Price(appt.DoctorID)
		prices = append(prices, price)
		lines = append(lines, ServiceLine{ID: services[i].ID, Title: services[i].Title, Price: catalog.Format(price)})
	}
	return View{
		ID:        appt.ID,
		Date:      date,
		Time:      clock,
		Status:    appt.Status,
		IsPaid:    appt.IsPaid,
		Doctor:    DoctorRef{ID: doc.ID, FullName: doc.FullName()},
		Services:  lines,
		Price:     catalog.Format(pricing.Total(prices...)),
		CreatedAt: appt.CreatedAt,
	}
}

// notify reports the change to staff. Failures are logged only.
func (s *Service) notify(ctx context.Context, kind string, appt *Appointment, view View, prevDate, prevTime string) {
	if s.notifier == nil {
		return
	}
	evt := notify.AppointmentEvent{
		AppointmentID: appt.ID,
		DoctorName:    view.Doctor.FullName,
		Date:          view.Date,
		Time:          view.Time,
		Total:         view.Price,
		PreviousDate:  prevDate,
		PreviousTime:  prevTime,
	}
	for _, line := range view.Services {
		evt.Services = append(evt.Services, line.Title)
	}
	if p, err := s.patients.Get(ctx, appt.PatientID); err == nil {
		evt.PatientName = catalog.JoinName(p.FirstName, p.MiddleName, p.LastName)
		evt.PatientPhone = p.Phone
	}

	var err error
	switch kind {
	case "booked":
		err = s.notifier.AppointmentBooked(ctx, evt)
	case "cancelled":
		err = s.notifier.AppointmentCancelled(ctx, evt)
	case "rescheduled":
		err = s.notifier.AppointmentRescheduled(ctx, evt)
	}
	if err != nil {
		s.logger.WithContext(ctx).Warn("staff notification failed", "error", err, "appointment_id", appt.ID, "kind", kind)
	}
}
