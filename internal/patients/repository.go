package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/clinic-booking/internal/pgutil"
)

const (
	patientColumns  = `id, phone, first_name, middle_name, last_name, birth_date`
	phoneConstraint = "patients_phone_key"
)

// Repository is the patient persistence used by Service. Methods taking a
// Querier run on it when non-nil so callers can enlist them in a transaction.
type Repository interface {
	Create(ctx context.Context, q pgutil.Querier, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPhone(ctx context.Context, q pgutil.Querier, phone string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
}

// PostgresRepository stores patients in Postgres.
type PostgresRepository struct {
	db pgutil.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgutil.Querier) *PostgresRepository {
	if db == nil {
		panic("patients: db required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, q pgutil.Querier, p *Patient) error {
	if q == nil {
		q = r.db
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO patients (id, phone, first_name, middle_name, last_name, birth_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Phone, p.FirstName, p.MiddleName, p.LastName, pgutil.Date(p.BirthDate))
	if err != nil {
		if pgutil.IsUniqueViolation(err, phoneConstraint) {
			return ErrPhoneTaken
		}
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, q pgutil.Querier, phone string) (*Patient, error) {
	if q == nil {
		q = r.db
	}
	p, err := scanPatient(q.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE phone = $1`, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: get by phone: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Patient) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE patients
		SET phone = $2, first_name = $3, middle_name = $4, last_name = $5, birth_date = $6
		WHERE id = $1
	`, p.ID, p.Phone, p.FirstName, p.MiddleName, p.LastName, pgutil.Date(p.BirthDate))
	if err != nil {
		if pgutil.IsUniqueViolation(err, phoneConstraint) {
			return ErrPhoneTaken
		}
		return fmt.Errorf("patients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Phone, &p.FirstName, &p.MiddleName, &p.LastName, &p.BirthDate); err != nil {
		return nil, err
	}
	return &p, nil
}
