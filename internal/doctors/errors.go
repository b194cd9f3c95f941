package doctors

import "errors"

var (
	ErrDoctorNotFound  = errors.New("doctors: doctor not found")
	ErrInvalidSchedule = errors.New("doctors: invalid schedule")
)
