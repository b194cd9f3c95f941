package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/phone"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

var patientsTracer = otel.Tracer("clinic.internal.patients")

// Service owns patient lookups and updates.
type Service struct {
	repo   Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("patients: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// LookupPhone normalizes number and reports the patient registered with it.
func (s *Service) LookupPhone(ctx context.Context, number string) (uuid.UUID, bool, error) {
	normalized, err := phone.Normalize(number)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%w: %v", ErrInvalidPatient, err)
	}
	p, err := s.repo.GetByPhone(ctx, nil, normalized)
	if errors.Is(err, ErrPatientNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return p.ID, true, nil
}

// Update applies a partial update to the patient's record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(p, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("patient updated", "patient_id", p.ID.String())
	return p, nil
}

// ResolveForBooking returns the patient the form describes, creating one
// when the phone is not yet registered. A registered phone whose name or
// birth date differ from the form yields ErrDataDoesNotMatch.
func (s *Service) ResolveForBooking(ctx context.Context, q pgutil.Querier, in Input) (uuid.UUID, error) {
	ctx, span := patientsTracer.Start(ctx, "patients.resolve_for_booking")
	defer span.End()

	form, err := in.Parse(s.now())
	if err != nil {
		return uuid.Nil, err
	}

	existing, err := s.repo.GetByPhone(ctx, q, form.Phone)
	switch {
	case err == nil:
		if !existing.Matches(form) {
			span.SetAttributes(attribute.Bool("clinic.patient_mismatch", true))
			return uuid.Nil, ErrDataDoesNotMatch
		}
		span.SetAttributes(attribute.Bool("clinic.patient_created", false))
		return existing.ID, nil
	case errors.Is(err, ErrPatientNotFound):
	default:
		span.RecordError(err)
		return uuid.Nil, err
	}

	if err := s.repo.Create(ctx, q, &form); err != nil {
		span.RecordError(err)
		return uuid.Nil, err
	}
	span.SetAttributes(attribute.Bool("clinic.patient_created", true))
	s.logger.Info("patient registered", "patient_id", form.ID.String(), "phone", phone.Mask(form.Phone))
	return form.ID, nil
}
