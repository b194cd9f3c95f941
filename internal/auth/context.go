package auth

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const patientKey ctxKey = "clinic.patient_id"

// WithPatientID stores the authenticated patient id in context.
func WithPatientID(ctx context.Context, patientID uuid.UUID) context.Context {
	return context.WithValue(ctx, patientKey, patientID)
}

// PatientIDFromContext extracts the patient id if present.
func PatientIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(patientKey)
	if val == nil {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
