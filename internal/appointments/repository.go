package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

const pendingSlotIndex = "idx_appointments_pending_slot"

const selectAppointment = `
	SELECT a.id, a.date, a.time, a.status, a.is_paid, a.doctor_id, a.patient_id, a.created_at,
		COALESCE(array_agg(sa.service_id ORDER BY sa.service_id) FILTER (WHERE sa.service_id IS NOT NULL), '{}')
	FROM appointments a
	LEFT JOIN services_to_appointments sa ON sa.appointment_id = a.id
`

// PatientResolverFunc resolves the booking patient inside the booking
// transaction.
type PatientResolverFunc func(ctx context.Context, q pgutil.Querier) (uuid.UUID, error)

// Repository is the appointment persistence used by Service.
type Repository interface {
	Create(ctx context.Context, appt *Appointment, resolve PatientResolverFunc) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	PendingSlots(ctx context.Context, doctorID int64, from time.Time) ([]scheduling.BookedSlot, error)
	Reschedule(ctx context.Context, id int64, date time.Time, at scheduling.TimeOfDay) error
	Cancel(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, update StatusUpdate) error
}

// PostgresRepository stores appointments in Postgres.
type PostgresRepository struct {
	db pgutil.DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgutil.DB) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts the appointment and its services in one transaction. When
// appt.PatientID is unset, resolve runs inside the transaction to find or
// register the patient. The pending-slot index turns a concurrent booking of
// the same slot into ErrSlotUnavailable.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment, resolve PatientResolverFunc) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if appt.PatientID == uuid.Nil {
		if resolve == nil {
			return fmt.Errorf("%w: patient required", ErrInvalidBooking)
		}
		id, err := resolve(ctx, tx)
		if err != nil {
			return err
		}
		appt.PatientID = id
	}
	if appt.Status == "" {
		appt.Status = StatusPending
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (date, time, status, is_paid, doctor_id, patient_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, pgutil.Date(appt.Date), pgutil.Time(appt.Time), string(appt.Status), appt.IsPaid, appt.DoctorID, appt.PatientID).
		Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		if pgutil.IsUniqueViolation(err, pendingSlotIndex) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}

	for _, serviceID := range appt.ServiceIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO services_to_appointments (appointment_id, service_id) VALUES ($1, $2)`,
			appt.ID, serviceID,
		); err != nil {
			return fmt.Errorf("appointments: link service: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if pgutil.IsUniqueViolation(err, pendingSlotIndex) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	appt, err := scanAppointment(r.db.QueryRow(ctx, selectAppointment+` WHERE a.id = $1 GROUP BY a.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return &appt, nil
}

// ListByPatient returns the patient's appointments, newest first.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, selectAppointment+`
		WHERE a.patient_id = $1
		GROUP BY a.id
		ORDER BY a.date DESC, a.time DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return out, nil
}

// PendingSlots returns the slots held by the doctor's pending appointments on
// or after from.
func (r *PostgresRepository) PendingSlots(ctx context.Context, doctorID int64, from time.Time) ([]scheduling.BookedSlot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date, time
		FROM appointments
		WHERE doctor_id = $1 AND status = 'pending' AND date >= $2
	`, doctorID, pgutil.Date(from))
	if err != nil {
		return nil, fmt.Errorf("appointments: pending slots: %w", err)
	}
	defer rows.Close()

	var out []scheduling.BookedSlot
	for rows.Next() {
		var (
			date time.Time
			at   pgtype.Time
		)
		if err := rows.Scan(&date, &at); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		out = append(out, scheduling.BookedSlot{Date: date, Time: pgutil.TimeOfDay(at)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: pending slots: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Reschedule(ctx context.Context, id int64, date time.Time, at scheduling.TimeOfDay) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET date = $2, time = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, pgutil.Date(date), pgutil.Time(at))
	if err != nil {
		if pgutil.IsUniqueViolation(err, pendingSlotIndex) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: reschedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("appointments: cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// UpdateStatus applies an admin update. Unset fields keep their value.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) error {
	var status pgtype.Text
	if update.Status != nil {
		status = pgtype.Text{String: string(*update.Status), Valid: true}
	}
	var paid pgtype.Bool
	if update.IsPaid != nil {
		paid = pgtype.Bool{Bool: *update.IsPaid, Valid: true}
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = COALESCE($2, status), is_paid = COALESCE($3, is_paid), updated_at = now()
		WHERE id = $1
	`, id, status, paid)
	if err != nil {
		if pgutil.IsUniqueViolation(err, pendingSlotIndex) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("appointments: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		appt   Appointment
		at     pgtype.Time
		status string
	)
	err := row.Scan(&appt.ID, &appt.Date, &at, &status, &appt.IsPaid, &appt.DoctorID, &appt.PatientID, &appt.CreatedAt, &appt.ServiceIDs)
	if err != nil {
		return appt, err
	}
	appt.Time = pgutil.TimeOfDay(at)
	appt.Status = Status(status)
	return appt, nil
}
