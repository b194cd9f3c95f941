package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/clinic-booking/internal/pgutil"
	"github.com/wolfman30/clinic-booking/internal/pricing"
)

const serviceSelect = `
	SELECT s.id, s.title, COALESCE(s.description, ''), s.markup, s.type_id, t.title, t.price
	FROM services s
	JOIN services_types t ON t.id = s.type_id
`

// PostgresRepository reads the catalog from Postgres.
type PostgresRepository struct {
	db pgutil.Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(db pgutil.Querier) *PostgresRepository {
	if db == nil {
		panic("catalog: db required")
	}
	return &PostgresRepository{db: db}
}

// ListSpecialties returns every specialty ordered by title.
func (r *PostgresRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, COALESCE(description, '') FROM specialties ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list specialties: %w", err)
	}
	defer rows.Close()

	var out []Specialty
	for rows.Next() {
		var s Specialty
		if err := rows.Scan(&s.ID, &s.Title, &s.Description); err != nil {
			return nil, fmt.Errorf("catalog: scan specialty: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list specialties: %w", err)
	}
	return out, nil
}

// GetSpecialtyByTitle looks a specialty up case-insensitively.
func (r *PostgresRepository) GetSpecialtyByTitle(ctx context.Context, title string) (*Specialty, error) {
	var s Specialty
	err := r.db.QueryRow(ctx,
		`SELECT id, title, COALESCE(description, '') FROM specialties WHERE lower(title) = lower($1)`,
		title,
	).Scan(&s.ID, &s.Title, &s.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpecialtyNotFound
		}
		return nil, fmt.Errorf("catalog: get specialty: %w", err)
	}
	return &s, nil
}

// ListSpecialtyDoctors returns the doctors practicing a specialty.
func (r *PostgresRepository) ListSpecialtyDoctors(ctx context.Context, specialtyID int64) ([]DoctorRef, error) {
	return r.queryDoctors(ctx, `
		SELECT d.id, d.first_name, d.middle_name, d.last_name
		FROM doctors d
		JOIN specialties_to_doctors sd ON sd.doctor_id = d.id
		WHERE sd.specialty_id = $1
		ORDER BY d.last_name, d.first_name
	`, specialtyID)
}

// ListServiceDoctors returns the doctors offering a service.
func (r *PostgresRepository) ListServiceDoctors(ctx context.Context, serviceID int64) ([]DoctorRef, error) {
	return r.queryDoctors(ctx, `
		SELECT d.id, d.first_name, d.middle_name, d.last_name
		FROM doctors d
		JOIN doctors_to_services ds ON ds.doctor_id = d.id
		WHERE ds.service_id = $1
		ORDER BY d.last_name, d.first_name
	`, serviceID)
}

func (r *PostgresRepository) queryDoctors(ctx context.Context, query string, arg int64) ([]DoctorRef, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("catalog: list doctors: %w", err)
	}
	defer rows.Close()

	var out []DoctorRef
	for rows.Next() {
		var d DoctorRef
		if err := rows.Scan(&d.ID, &d.FirstName, &d.MiddleName, &d.LastName); err != nil {
			return nil, fmt.Errorf("catalog: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list doctors: %w", err)
	}
	return out, nil
}

// ListServicesBySpecialty returns a specialty's services with doctor links.
func (r *PostgresRepository) ListServicesBySpecialty(ctx context.Context, specialtyID int64) ([]Service, error) {
	return r.queryServices(ctx, serviceSelect+`
		JOIN services_to_specialties ss ON ss.service_id = s.id
		WHERE ss.specialty_id = $1
		ORDER BY s.title
	`, specialtyID)
}

// ListServicesByDoctor returns the services a doctor renders with doctor links.
func (r *PostgresRepository) ListServicesByDoctor(ctx context.Context, doctorID int64) ([]Service, error) {
	return r.queryServices(ctx, serviceSelect+`
		JOIN doctors_to_services ds ON ds.service_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.title
	`, doctorID)
}

// GetServiceByTitle looks a service up case-insensitively.
func (r *PostgresRepository) GetServiceByTitle(ctx context.Context, title string) (*Service, error) {
	return r.getService(ctx, serviceSelect+` WHERE lower(s.title) = lower($1)`, title)
}

// GetServiceByID loads one service with its doctor links.
func (r *PostgresRepository) GetServiceByID(ctx context.Context, id int64) (*Service, error) {
	return r.getService(ctx, serviceSelect+` WHERE s.id = $1`, id)
}

func (r *PostgresRepository) getService(ctx context.Context, query string, arg any) (*Service, error) {
	svc, err := scanService(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("catalog: get service: %w", err)
	}
	links, err := r.loadLinks(ctx, []int64{svc.ID})
	if err != nil {
		return nil, err
	}
	svc.Links = links[svc.ID]
	return &svc, nil
}

func (r *PostgresRepository) queryServices(ctx context.Context, query string, arg int64) ([]Service, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	var out []Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, svc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	links, err := r.loadLinks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Links = links[out[i].ID]
	}
	return out, nil
}

func (r *PostgresRepository) loadLinks(ctx context.Context, serviceIDs []int64) (map[int64][]pricing.DoctorLink, error) {
	rows, err := r.db.Query(ctx,
		`SELECT doctor_id, service_id, markup FROM doctors_to_services WHERE service_id = ANY($1)`,
		serviceIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: load doctor links: %w", err)
	}
	defer rows.Close()

	links := make(map[int64][]pricing.DoctorLink, len(serviceIDs))
	for rows.Next() {
		var (
			link   pricing.DoctorLink
			markup pgtype.Numeric
		)
		if err := rows.Scan(&link.DoctorID, &link.ServiceID, &markup); err != nil {
			return nil, fmt.Errorf("catalog: scan doctor link: %w", err)
		}
		link.Markup = pgutil.Decimal(markup)
		links[link.ServiceID] = append(links[link.ServiceID], link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: load doctor links: %w", err)
	}
	return links, nil
}

func scanService(row pgx.Row) (Service, error) {
	var (
		svc               Service
		markup, typePrice pgtype.Numeric
	)
	if err := row.Scan(&svc.ID, &svc.Title, &svc.Description, &markup, &svc.TypeID, &svc.TypeTitle, &typePrice); err != nil {
		return Service{}, err
	}
	svc.Markup = pgutil.Decimal(markup)
	svc.TypePrice = pgutil.Decimal(typePrice)
	return svc, nil
}
