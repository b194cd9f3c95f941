package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/clinic-booking/internal/pricing"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// Repository is the catalog persistence used by Directory.
type Repository interface {
	ListSpecialties(ctx context.Context) ([]Specialty, error)
	GetSpecialtyByTitle(ctx context.Context, title string) (*Specialty, error)
	ListSpecialtyDoctors(ctx context.Context, specialtyID int64) ([]DoctorRef, error)
	ListServiceDoctors(ctx context.Context, serviceID int64) ([]DoctorRef, error)
	ListServicesBySpecialty(ctx context.Context, specialtyID int64) ([]Service, error)
	ListServicesByDoctor(ctx context.Context, doctorID int64) ([]Service, error)
	GetServiceByTitle(ctx context.Context, title string) (*Service, error)
	GetServiceByID(ctx context.Context, id int64) (*Service, error)
}

// SpecialtySummary is a specialty list entry. ConsultationPrice is the
// cheapest consultation in whole currency units, when one exists.
type SpecialtySummary struct {
	Specialty
	ConsultationPrice *int64 `json:"consultation_price,omitempty"`
}

// DoctorPrice is what one doctor charges for a service.
type DoctorPrice struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Price    string `json:"price"`
}

// ServiceView is the public representation of a service.
type ServiceView struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Type         string        `json:"type"`
	Consultation bool          `json:"consultation"`
	Price        string        `json:"price,omitempty"`
	MinPrice     string        `json:"min_price"`
	MaxPrice     string        `json:"max_price"`
	Doctors      []DoctorPrice `json:"doctors,omitempty"`
}

// DoctorView is a doctor reference inside a specialty page.
type DoctorView struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// SpecialtyDetail is a specialty page: its doctors and priced services.
type SpecialtyDetail struct {
	Specialty
	Doctors  []DoctorView  `json:"doctors"`
	Services []ServiceView `json:"services"`
}

// Directory answers catalog questions with prices applied.
type Directory struct {
	repo   Repository
	logger *logging.Logger
}

// NewDirectory constructs the catalog directory.
func NewDirectory(repo Repository, logger *logging.Logger) *Directory {
	if repo == nil {
		panic("catalog: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{repo: repo, logger: logger}
}

// ListSpecialties returns specialties with their cheapest consultation price.
func (d *Directory) ListSpecialties(ctx context.Context) ([]SpecialtySummary, error) {
	specialties, err := d.repo.ListSpecialties(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SpecialtySummary, 0, len(specialties))
	for _, sp := range specialties {
		services, err := d.repo.ListServicesBySpecialty(ctx, sp.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, SpecialtySummary{Specialty: sp, ConsultationPrice: cheapestConsultation(services)})
	}
	return out, nil
}

// GetSpecialty returns a specialty with its doctors and priced services.
func (d *Directory) GetSpecialty(ctx context.Context, title string) (*SpecialtyDetail, error) {
	sp, err := d.repo.GetSpecialtyByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	doctors, err := d.repo.ListSpecialtyDoctors(ctx, sp.ID)
	if err != nil {
		return nil, err
	}
	services, err := d.repo.ListServicesBySpecialty(ctx, sp.ID)
	if err != nil {
		return nil, err
	}

	detail := &SpecialtyDetail{
		Specialty: *sp,
		Doctors:   make([]DoctorView, 0, len(doctors)),
		Services:  make([]ServiceView, 0, len(services)),
	}
	for _, doc := range doctors {
		detail.Doctors = append(detail.Doctors, DoctorView{ID: doc.ID, FullName: doc.FullName()})
	}
	for i := range services {
		detail.Services = append(detail.Services, newServiceView(&services[i]))
	}
	return detail, nil
}

// GetService returns a service. When doctorID is non-zero the view carries
// that doctor's price and ErrServiceNotOffered is returned if the doctor
// does not render the service.
func (d *Directory) GetService(ctx context.Context, title string, doctorID int64) (*ServiceView, error) {
	svc, err := d.repo.GetServiceByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	view := newServiceView(svc)
	p := svc.Pricing()

	if doctorID != 0 {
		if !p.Offers(doctorID) {
			return nil, ErrServiceNotOffered
		}
		view.Price = Format(p.Price(doctorID))
	}

	doctors, err := d.repo.ListServiceDoctors(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	for _, doc := range doctors {
		view.Doctors = append(view.Doctors, DoctorPrice{
			ID:       doc.ID,
			FullName: doc.FullName(),
			Price:    Format(p.Price(doc.ID)),
		})
	}
	return &view, nil
}

// ServiceByID loads a service with its doctor links.
func (d *Directory) ServiceByID(ctx context.Context, id int64) (*Service, error) {
	return d.repo.GetServiceByID(ctx, id)
}

// ServicesForDoctor loads the services a doctor renders.
func (d *Directory) ServicesForDoctor(ctx context.Context, doctorID int64) ([]Service, error) {
	return d.repo.ListServicesByDoctor(ctx, doctorID)
}

func newServiceView(svc *Service) ServiceView {
	lo, hi := svc.Pricing().Range()
	return ServiceView{
		ID:           svc.ID,
		Title:        svc.Title,
		Description:  svc.Description,
		Type:         svc.TypeTitle,
		Consultation: svc.IsConsultation(),
		MinPrice:     Format(lo),
		MaxPrice:     Format(hi),
	}
}

func cheapestConsultation(services []Service) *int64 {
	var (
		best  decimal.Decimal
		found bool
	)
	for i := range services {
		if !services[i].IsConsultation() {
			continue
		}
		lo, _ := services[i].Pricing().Range()
		if !found || lo.LessThan(best) {
			best, found = lo, true
		}
	}
	if !found {
		return nil
	}
	whole := pricing.WholeUnits(best)
	return &whole
}

// Format renders a price with the fixed two-digit scale.
func Format(d decimal.Decimal) string {
	return d.StringFixed(pricing.Scale)
}
