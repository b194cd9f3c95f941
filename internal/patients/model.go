// Package patients stores patient records and resolves the patient behind a
// booking form.
package patients

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-booking/internal/phone"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

const maxNameLength = 50

var earliestBirthDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Patient is a registered patient, identified by phone for login.
type Patient struct {
	ID         uuid.UUID
	Phone      string
	FirstName  string
	MiddleName string
	LastName   string
	BirthDate  time.Time
}

// Matches reports whether in describes this patient. Names compare
// case-insensitively.
func (p *Patient) Matches(in Patient) bool {
	return strings.EqualFold(p.FirstName, in.FirstName) &&
		strings.EqualFold(p.MiddleName, in.MiddleName) &&
		strings.EqualFold(p.LastName, in.LastName) &&
		scheduling.FormatDate(p.BirthDate) == scheduling.FormatDate(in.BirthDate)
}

// View is the JSON shape returned to the patient.
type View struct {
	ID         uuid.UUID `json:"id"`
	Phone      string    `json:"phone"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name"`
	LastName   string    `json:"last_name"`
	BirthDate  string    `json:"birth_date"`
}

func (p *Patient) View() View {
	return View{
		ID:         p.ID,
		Phone:      p.Phone,
		FirstName:  p.FirstName,
		MiddleName: p.MiddleName,
		LastName:   p.LastName,
		BirthDate:  scheduling.FormatDate(p.BirthDate),
	}
}

// Input is patient data as submitted on a booking form.
type Input struct {
	Phone      string `json:"phone"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	BirthDate  string `json:"birth_date"`
}

// Parse validates the input and returns it as an unsaved Patient.
func (in Input) Parse(now time.Time) (Patient, error) {
	number, err := phone.Normalize(in.Phone)
	if err != nil {
		return Patient{}, fmt.Errorf("%w: %v", ErrInvalidPatient, err)
	}
	birth, err := scheduling.ParseDate(in.BirthDate)
	if err != nil {
		return Patient{}, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidPatient)
	}
	p := Patient{
		Phone:      number,
		FirstName:  strings.TrimSpace(in.FirstName),
		MiddleName: strings.TrimSpace(in.MiddleName),
		LastName:   strings.TrimSpace(in.LastName),
		BirthDate:  birth,
	}
	if err := p.validate(now); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (p *Patient) validate(now time.Time) error {
	if err := validateName("first_name", p.FirstName, true); err != nil {
		return err
	}
	if err := validateName("middle_name", p.MiddleName, false); err != nil {
		return err
	}
	if err := validateName("last_name", p.LastName, true); err != nil {
		return err
	}
	if _, err := phone.Normalize(p.Phone); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatient, err)
	}
	if !p.BirthDate.After(earliestBirthDate) || !p.BirthDate.Before(scheduling.DateOf(now)) {
		return fmt.Errorf("%w: birth_date must be after 1900-01-01 and in the past", ErrInvalidPatient)
	}
	return nil
}

func validateName(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%w: %s required", ErrInvalidPatient, field)
		}
		return nil
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		return fmt.Errorf("%w: %s longer than %d characters", ErrInvalidPatient, field, maxNameLength)
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && r != '-' {
			return fmt.Errorf("%w: %s may contain only letters and hyphens", ErrInvalidPatient, field)
		}
	}
	return nil
}

// UpdateRequest is a partial update of the patient's own record.
type UpdateRequest struct {
	Phone      *string `json:"phone,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	BirthDate  *string `json:"birth_date,omitempty"`
}

// Apply merges the request onto p and validates the result.
func (r UpdateRequest) Apply(p *Patient, now time.Time) error {
	next := *p
	if r.Phone != nil {
		number, err := phone.Normalize(*r.Phone)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPatient, err)
		}
		next.Phone = number
	}
	if r.FirstName != nil {
		next.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.MiddleName != nil {
		next.MiddleName = strings.TrimSpace(*r.MiddleName)
	}
	if r.LastName != nil {
		next.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.BirthDate != nil {
		birth, err := scheduling.ParseDate(*r.BirthDate)
		if err != nil {
			return fmt.Errorf("%w: birth_date must be YYYY-MM-DD", ErrInvalidPatient)
		}
		next.BirthDate = birth
	}
	if err := next.validate(now); err != nil {
		return err
	}
	*p = next
	return nil
}
