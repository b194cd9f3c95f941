package appointments

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	ErrInvalidBooking      = errors.New("appointments: invalid booking request")
	ErrSlotUnavailable     = errors.New("appointments: slot is not available")
	ErrNotPending          = errors.New("appointments: only pending appointments can be changed")
	ErrInvalidStatus       = errors.New("appointments: invalid status")
)
