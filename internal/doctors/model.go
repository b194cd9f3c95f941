// Package doctors serves doctor profiles, work schedules and availability.
package doctors

import (
	"time"

	"github.com/wolfman30/clinic-booking/internal/catalog"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

// Doctor is a practitioner accepting appointments.
type Doctor struct {
	ID              int64
	FirstName       string
	MiddleName      string
	LastName        string
	ExperienceSince time.Time
	Description     string
}

// FullName joins the non-empty name parts.
func (d *Doctor) FullName() string {
	return catalog.JoinName(d.FirstName, d.MiddleName, d.LastName)
}

// ExperienceYears counts calendar years since the doctor started practicing.
func (d *Doctor) ExperienceYears(now time.Time) int {
	years := now.Year() - d.ExperienceSince.Year()
	if years < 0 {
		return 0
	}
	return years
}

// Summary is a doctor list entry.
type Summary struct {
	ID                int64  `json:"id"`
	FullName          string `json:"full_name"`
	ExperienceInYears int    `json:"experience_in_years"`
}

// ServicePrice is a service as priced by one doctor.
type ServicePrice struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Consultation bool   `json:"consultation"`
	Price        string `json:"price"`
}

// ScheduleDay is one weekday of a doctor's recurring schedule.
type ScheduleDay struct {
	Weekday scheduling.Weekday   `json:"weekday"`
	Day     string               `json:"day"`
	Start   scheduling.TimeOfDay `json:"start_time"`
	End     scheduling.TimeOfDay `json:"end_time"`
}

// Profile is the public doctor page.
type Profile struct {
	ID                int64          `json:"id"`
	FullName          string         `json:"full_name"`
	ExperienceInYears int            `json:"experience_in_years"`
	Description       string         `json:"description,omitempty"`
	Specialties       []string       `json:"specialties"`
	Services          []ServicePrice `json:"services"`
	Schedule          []ScheduleDay  `json:"schedule"`
}
