// Package catalog exposes specialties and services with their prices.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/clinic-booking/internal/pricing"
)

// ConsultationTypeID is the service type of first-visit consultations.
const ConsultationTypeID int64 = 1

// Specialty groups doctors and the services they render.
type Specialty struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Service is a bookable catalog service. Its base price is the service-type
// price plus the service-level markup.
type Service struct {
	ID          int64
	Title       string
	Description string
	Markup      decimal.Decimal
	TypeID      int64
	TypeTitle   string
	TypePrice   decimal.Decimal
	Links       []pricing.DoctorLink
}

// BasePrice is the price before any doctor markup.
func (s *Service) BasePrice() decimal.Decimal {
	return pricing.ResolveBasePrice(s.TypePrice, s.Markup)
}

// Pricing returns the pricing view used by the price calculator.
func (s *Service) Pricing() pricing.Service {
	return pricing.Service{ID: s.ID, BasePrice: s.BasePrice(), Links: s.Links}
}

// IsConsultation reports whether the service is a consultation.
func (s *Service) IsConsultation() bool {
	return s.TypeID == ConsultationTypeID
}

// DoctorRef is the minimal doctor identity shown alongside catalog entries.
type DoctorRef struct {
	ID         int64
	FirstName  string
	MiddleName string
	LastName   string
}

// FullName joins the non-empty name parts.
func (d DoctorRef) FullName() string {
	return JoinName(d.FirstName, d.MiddleName, d.LastName)
}

// JoinName formats a person's name as "first middle last".
func JoinName(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
