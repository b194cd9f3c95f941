package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer           = "clinic-booking"
	typeAccess            = "access"
	typeAppointment       = "appointment"
	defaultAccessTTL      = 24 * time.Hour
	defaultAppointmentTTL = 72 * time.Hour
)

type accessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type appointmentClaims struct {
	AppointmentID int64  `json:"appointment_id"`
	Type          string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses the HS256 tokens handed to patients.
type TokenIssuer struct {
	secret         []byte
	accessTTL      time.Duration
	appointmentTTL time.Duration
	now            func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, appointmentTTL time.Duration) *TokenIssuer {
	if secret == "" {
		panic("auth: token secret required")
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if appointmentTTL <= 0 {
		appointmentTTL = defaultAppointmentTTL
	}
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, appointmentTTL: appointmentTTL, now: time.Now}
}

// IssueAccess returns a patient access token and its expiry.
func (t *TokenIssuer) IssueAccess(patientID uuid.UUID) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.accessTTL)
	claims := accessClaims{
		Type: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   patientID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := t.sign(claims)
	return signed, expires, err
}

// ParseAccess returns the patient id carried by an access token.
func (t *TokenIssuer) ParseAccess(token string) (uuid.UUID, error) {
	var claims accessClaims
	if err := t.parse(token, &claims); err != nil {
		return uuid.Nil, err
	}
	if claims.Type != typeAccess {
		return uuid.Nil, ErrTokenInvalid
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return id, nil
}

// IssueAppointment returns a token granting read access to one appointment.
func (t *TokenIssuer) IssueAppointment(appointmentID int64) (string, error) {
	now := t.now()
	claims := appointmentClaims{
		AppointmentID: appointmentID,
		Type:          typeAppointment,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(appointmentID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.appointmentTTL)),
		},
	}
	return t.sign(claims)
}

// ParseAppointment returns the appointment id carried by an appointment token.
func (t *TokenIssuer) ParseAppointment(token string) (int64, error) {
	var claims appointmentClaims
	if err := t.parse(token, &claims); err != nil {
		return 0, err
	}
	if claims.Type != typeAppointment || claims.AppointmentID <= 0 {
		return 0, ErrTokenInvalid
	}
	return claims.AppointmentID, nil
}

func (t *TokenIssuer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims) error {
	if token == "" {
		return ErrTokenInvalid
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
