package patients

import "errors"

var (
	ErrPatientNotFound  = errors.New("patients: patient not found")
	ErrInvalidPatient   = errors.New("patients: invalid patient data")
	ErrDataDoesNotMatch = errors.New("patients: data does not match the patient on record")
	ErrPhoneTaken       = errors.New("patients: phone already registered")
)
