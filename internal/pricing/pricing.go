// Package pricing computes what a service costs when rendered by a given doctor.
package pricing

import "github.com/shopspring/decimal"

// Scale is the number of fractional digits carried by every price.
const Scale = 2

// DoctorLink associates a doctor with a service and an additive markup.
type DoctorLink struct {
	DoctorID  int64
	ServiceID int64
	Markup    decimal.Decimal
}

// Service is the pricing view of a catalog service.
type Service struct {
	ID        int64
	BasePrice decimal.Decimal
	Links     []DoctorLink
}

// ResolveBasePrice combines the service-type price with the service-level markup.
func ResolveBasePrice(typePrice, serviceMarkup decimal.Decimal) decimal.Decimal {
	return Round(typePrice.Add(serviceMarkup))
}

// MarkupFor looks up the markup for doctorID on this service.
func (s Service) MarkupFor(doctorID int64) (decimal.Decimal, bool) {
	for _, link := range s.Links {
		if link.DoctorID == doctorID && link.ServiceID == s.ID {
			return link.Markup, true
		}
	}
	return decimal.Zero, false
}

// Offers reports whether doctorID has a link to this service.
func (s Service) Offers(doctorID int64) bool {
	_, ok := s.MarkupFor(doctorID)
	return ok
}

// Price is the base price plus the doctor's markup, or the base price alone
// when the doctor has no link to the service.
func (s Service) Price(doctorID int64) decimal.Decimal {
	markup, ok := s.MarkupFor(doctorID)
	if !ok {
		markup = decimal.Zero
	}
	return Round(s.BasePrice.Add(markup))
}

// Range returns the lowest and highest price across linked doctors. With no
// links both bounds are the base price.
func (s Service) Range() (min, max decimal.Decimal) {
	min, max = Round(s.BasePrice), Round(s.BasePrice)
	first := true
	for _, link := range s.Links {
		if link.ServiceID != s.ID {
			continue
		}
		p := s.Price(link.DoctorID)
		if first {
			min, max = p, p
			first = false
			continue
		}
		if p.LessThan(min) {
			min = p
		}
		if p.GreaterThan(max) {
			max = p
		}
	}
	return min, max
}

// Round fixes d to Scale fractional digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// WholeUnits truncates d toward zero for compact list display.
func WholeUnits(d decimal.Decimal) int64 {
	return d.Truncate(0).IntPart()
}

// Total sums prices.
func Total(prices ...decimal.Decimal) decimal.Decimal {
	return Round(decimal.Sum(decimal.Zero, prices...))
}
