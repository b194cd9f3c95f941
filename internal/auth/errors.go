package auth

import "errors"

var (
	ErrPatientNotFound = errors.New("auth: no patient registered with this phone")
	ErrInvalidPhone    = errors.New("auth: invalid phone number")
	ErrInvalidCode     = errors.New("auth: code must have 6 digits")
	ErrOTPNotFound     = errors.New("auth: code expired or was never requested")
	ErrOTPMismatch     = errors.New("auth: code does not match")
	ErrTooManyAttempts = errors.New("auth: too many attempts")
	ErrTokenExpired    = errors.New("auth: token expired")
	ErrTokenInvalid    = errors.New("auth: token invalid")
)
