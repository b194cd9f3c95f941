package doctors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/clinic"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

var doctorsTracer = otel.Tracer("clinic.internal.doctors")

// ServiceCatalog lists the services a doctor renders.
type ServiceCatalog interface {
	ServicesForDoctor(ctx context.Context, doctorID int64) ([]catalog.Service, error)
}

// BookedSlotSource returns slots held by pending appointments from a date on.
type BookedSlotSource interface {
	PendingSlots(ctx context.Context, doctorID int64, from time.Time) ([]scheduling.BookedSlot, error)
}

// SettingsProvider supplies clinic-wide scheduling settings.
type SettingsProvider interface {
	Get(ctx context.Context) (*clinic.Settings, error)
}

// Service assembles doctor profiles and availability.
type Service struct {
	repo     Repository
	catalog  ServiceCatalog
	booked   BookedSlotSource
	settings SettingsProvider
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService constructs the doctors service.
func NewService(repo Repository, catalog ServiceCatalog, booked BookedSlotSource, settings SettingsProvider, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("doctors: repository required")
	}
	if booked == nil || settings == nil {
		panic("doctors: booked slot source and settings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		booked:   booked,
		settings: settings,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Doctor loads one doctor.
func (s *Service) Doctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns every doctor as a summary.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Summary, 0, len(docs))
	for i := range docs {
		out = append(out, Summary{
			ID:                docs[i].ID,
			FullName:          docs[i].FullName(),
			ExperienceInYears: docs[i].ExperienceYears(now),
		})
	}
	return out, nil
}

// Profile builds the public doctor page with per-doctor service prices.
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	specialties, err := s.repo.ListSpecialtyTitles(ctx, id)
	if err != nil {
		return nil, err
	}
	intervals, err := s.repo.WorkSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:                doc.ID,
		FullName:          doc.FullName(),
		ExperienceInYears: doc.ExperienceYears(s.now()),
		Description:       doc.Description,
		Specialties:       specialties,
		Services:          []ServicePrice{},
		Schedule:          make([]ScheduleDay, 0, len(intervals)),
	}

	if s.catalog != nil {
		services, err := s.catalog.ServicesForDoctor(ctx, id)
		if err != nil {
			return nil, err
		}
		for i := range services {
			profile.Services = append(profile.Services, ServicePrice{
				ID:           services[i].ID,
				Title:        services[i].Title,
				Consultation: services[i].IsConsultation(),
				Price:        catalog.Format(services[i].Pricing().Price(id)),
			})
		}
	}

	for _, iv := range intervals {
		profile.Schedule = append(profile.Schedule, ScheduleDay{
			Weekday: iv.Weekday,
			Day:     iv.Weekday.String(),
			Start:   iv.Start,
			End:     iv.End,
		})
	}
	return profile, nil
}

// Availability computes the doctor's free slots over the clinic booking
// window, starting today in the clinic timezone.
func (s *Service) Availability(ctx context.Context, doctorID int64) (scheduling.AvailabilitySchedule, error) {
	ctx, span := doctorsTracer.Start(ctx, "doctors.availability")
	defer span.End()
	span.SetAttributes(attribute.Int64("clinic.doctor_id", doctorID))

	started := time.Now()
	schedule, err := s.availability(ctx, doctorID)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAvailability("error", elapsed)
		return nil, err
	}

	result := "available"
	if len(schedule) == 0 {
		result = "empty"
	}
	s.metrics.ObserveAvailability(result, elapsed)
	span.SetAttributes(attribute.Int("clinic.available_days", len(schedule)))
	return schedule, nil
}

func (s *Service) availability(ctx context.Context, doctorID int64) (scheduling.AvailabilitySchedule, error) {
	if _, err := s.repo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("doctors: load settings: %w", err)
	}
	intervals, err := s.repo.WorkSchedule(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	today := settings.Today(s.now())
	booked, err := s.booked.PendingSlots(ctx, doctorID, today)
	if err != nil {
		return nil, fmt.Errorf("doctors: load booked slots: %w", err)
	}

	weekly := scheduling.WeeklySlotsFromIntervals(intervals, settings.SlotDuration(), settings.SlotPolicy())
	return scheduling.ComputeAvailability(weekly, booked, today, settings.WindowDays()), nil
}

// SetSchedule validates and replaces the doctor's weekly schedule.
func (s *Service) SetSchedule(ctx context.Context, doctorID int64, intervals []scheduling.WorkInterval) ([]scheduling.WorkInterval, error) {
	seen := make(map[scheduling.Weekday]bool, len(intervals))
	for _, iv := range intervals {
		if err := iv.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		if seen[iv.Weekday] {
			return nil, fmt.Errorf("%w: duplicate %s", ErrInvalidSchedule, iv.Weekday)
		}
		seen[iv.Weekday] = true
	}

	ordered := append([]scheduling.WorkInterval(nil), intervals...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Weekday < ordered[j].Weekday })

	if err := s.repo.ReplaceSchedule(ctx, doctorID, ordered); err != nil {
		return nil, err
	}
	s.logger.Info("doctor schedule replaced", "doctor_id", doctorID, "days", len(ordered))
	return ordered, nil
}
