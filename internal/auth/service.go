// Package auth implements phone one-time-code login and the patient and
// appointment tokens issued after it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/internal/observability/metrics"
	"github.com/wolfman30/clinic-booking/internal/phone"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

var authTracer = otel.Tracer("clinic.internal.auth")

const defaultMaxAttempts = 5

// PatientLookup resolves a phone number to a registered patient.
type PatientLookup interface {
	LookupPhone(ctx context.Context, phone string) (uuid.UUID, bool, error)
}

// Service runs the login flow.
type Service struct {
	patients    PatientLookup
	codes       CodeStore
	sms         notify.SMSSender
	tokens      *TokenIssuer
	maxAttempts int
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
}

// Options holds the optional collaborators of Service.
type Options struct {
	MaxAttempts int
	Metrics     *metrics.BookingMetrics
	Logger      *logging.Logger
}

func NewService(patients PatientLookup, codes CodeStore, sms notify.SMSSender, tokens *TokenIssuer, opts Options) *Service {
	if patients == nil || codes == nil || sms == nil || tokens == nil {
		panic("auth: patients, code store, sms sender and tokens required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Service{
		patients:    patients,
		codes:       codes,
		sms:         sms,
		tokens:      tokens,
		maxAttempts: opts.MaxAttempts,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
	}
}

// Login sends a fresh one-time code to a registered patient's phone.
func (s *Service) Login(ctx context.Context, rawPhone string) error {
	ctx, span := authTracer.Start(ctx, "auth.login")
	defer span.End()

	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return ErrInvalidPhone
	}
	if _, err := s.lookup(ctx, number); err != nil {
		return err
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}
	salt, err := NewSalt()
	if err != nil {
		return err
	}
	if err := s.codes.Save(ctx, number, salt, HashCode(code, salt)); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.sms.SendSMS(ctx, number, fmt.Sprintf("Your login code is %s", code)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("auth: send code: %w", err)
	}

	s.metrics.ObserveOTPIssued()
	s.logger.WithContext(ctx).Info("login code issued", "phone", phone.Mask(number))
	return nil
}

// Verify checks the code and, on success, returns an access token and its
// expiry. The code is single use.
func (s *Service) Verify(ctx context.Context, rawPhone, code string) (string, time.Time, error) {
	ctx, span := authTracer.Start(ctx, "auth.verify")
	defer span.End()

	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return "", time.Time{}, ErrInvalidPhone
	}
	code = strings.TrimSpace(code)
	if !validCode(code) {
		return "", time.Time{}, ErrInvalidCode
	}

	attempts, err := s.codes.IncrAttempts(ctx, number)
	if err != nil {
		// Counter outage alone does not block logins.
		s.logger.WithContext(ctx).Error("attempt counter unavailable", "error", err)
	} else if attempts > s.maxAttempts {
		span.SetAttributes(attribute.Bool("auth.locked", true))
		s.metrics.ObserveOTPVerified("locked")
		return "", time.Time{}, ErrTooManyAttempts
	}

	salt, hash, err := s.codes.Get(ctx, number)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			s.metrics.ObserveOTPVerified("missing")
		}
		return "", time.Time{}, err
	}
	if !VerifyCode(code, salt, hash) {
		s.metrics.ObserveOTPVerified("mismatch")
		return "", time.Time{}, ErrOTPMismatch
	}

	patientID, err := s.lookup(ctx, number)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.codes.Delete(ctx, number); err != nil {
		s.logger.WithContext(ctx).Warn("failed to delete used code", "error", err)
	}

	token, expires, err := s.tokens.IssueAccess(patientID)
	if err != nil {
		span.RecordError(err)
		return "", time.Time{}, err
	}
	s.metrics.ObserveOTPVerified("ok")
	s.logger.WithContext(ctx).Info("patient logged in", "patient_id", patientID.String())
	return token, expires, nil
}

func (s *Service) lookup(ctx context.Context, number string) (uuid.UUID, error) {
	id, found, err := s.patients.LookupPhone(ctx, number)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: lookup patient: %w", err)
	}
	if !found {
		return uuid.Nil, ErrPatientNotFound
	}
	return id, nil
}
