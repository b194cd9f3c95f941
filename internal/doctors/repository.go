package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

// Repository is the doctor persistence used by Service.
type Repository interface {
	List(ctx context.Context) ([]Doctor, error)
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	ListSpecialtyTitles(ctx context.Context, doctorID int64) ([]string, error)
	WorkSchedule(ctx context.Context, doctorID int64) ([]scheduling.WorkInterval, error)
	ReplaceSchedule(ctx context.Context, doctorID int64, intervals []scheduling.WorkInterval) error
}

const doctorColumns = `id, first_name, middle_name, last_name, experience_since, COALESCE(description, '')`

// PostgresRepository stores doctors in Postgres.
type PostgresRepository struct {
	db pgutil.DB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgutil.DB) *PostgresRepository {
	if db == nil {
		panic("doctors: db required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `SELECT `+doctorColumns+` FROM doctors ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		doc, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	doc, err := scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: get: %w", err)
	}
	return &doc, nil
}

func (r *PostgresRepository) ListSpecialtyTitles(ctx context.Context, doctorID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.title
		FROM specialties s
		JOIN specialties_to_doctors sd ON sd.specialty_id = s.id
		WHERE sd.doctor_id = $1
		ORDER BY s.title
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctors: list specialties: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("doctors: scan specialty: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// WorkSchedule returns the doctor's recurring intervals ordered by weekday.
func (r *PostgresRepository) WorkSchedule(ctx context.Context, doctorID int64) ([]scheduling.WorkInterval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT weekday, start_time, end_time
		FROM work_schedules
		WHERE doctor_id = $1
		ORDER BY weekday
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctors: load schedule: %w", err)
	}
	defer rows.Close()

	var out []scheduling.WorkInterval
	for rows.Next() {
		var (
			weekday    int16
			start, end pgtype.Time
		)
		if err := rows.Scan(&weekday, &start, &end); err != nil {
			return nil, fmt.Errorf("doctors: scan schedule: %w", err)
		}
		out = append(out, scheduling.WorkInterval{
			Weekday: scheduling.Weekday(weekday),
			Start:   pgutil.TimeOfDay(start),
			End:     pgutil.TimeOfDay(end),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: load schedule: %w", err)
	}
	return out, nil
}

// ReplaceSchedule swaps the doctor's whole weekly schedule in one transaction.
func (r *PostgresRepository) ReplaceSchedule(ctx context.Context, doctorID int64, intervals []scheduling.WorkInterval) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("doctors: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM doctors WHERE id = $1 FOR UPDATE`, doctorID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("doctors: lock doctor: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM work_schedules WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("doctors: clear schedule: %w", err)
	}
	for _, iv := range intervals {
		if _, err := tx.Exec(ctx,
			`INSERT INTO work_schedules (doctor_id, weekday, start_time, end_time) VALUES ($1, $2, $3, $4)`,
			doctorID, int16(iv.Weekday), pgutil.Time(iv.Start), pgutil.Time(iv.End),
		); err != nil {
			return fmt.Errorf("doctors: insert schedule: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("doctors: commit schedule: %w", err)
	}
	return nil
}

func scanDoctor(row pgx.Row) (Doctor, error) {
	var doc Doctor
	err := row.Scan(&doc.ID, &doc.FirstName, &doc.MiddleName, &doc.LastName, &doc.ExperienceSince, &doc.Description)
	return doc, err
}
