// Package appointments books, reschedules and cancels patient appointments.
package appointments

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-booking/internal/patients"
	"github.com/wolfman30/clinic-booking/internal/scheduling"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is one booked visit. Only pending appointments hold a slot.
type Appointment struct {
	ID         int64
	Date       time.Time
	Time       scheduling.TimeOfDay
	Status     Status
	IsPaid     bool
	DoctorID   int64
	PatientID  uuid.UUID
	ServiceIDs []int64
	CreatedAt  time.Time
}

// Slot returns the appointment's date and time as availability keys.
func (a *Appointment) Slot() (string, string) {
	return scheduling.FormatDate(a.Date), a.Time.String()
}

// BookingForm is the public booking request. Patient is ignored when the
// caller is logged in.
type BookingForm struct {
	DoctorID  int64          `json:"doctor_id"`
	ServiceID int64          `json:"service_id"`
	Date      string         `json:"date"`
	Time      string         `json:"time"`
	Patient   patients.Input `json:"patient"`
}

func (f BookingForm) slot() (time.Time, scheduling.TimeOfDay, error) {
	if f.DoctorID <= 0 {
		return time.Time{}, 0, fmt.Errorf("%w: doctor_id required", ErrInvalidBooking)
	}
	if f.ServiceID <= 0 {
		return time.Time{}, 0, fmt.Errorf("%w: service_id required", ErrInvalidBooking)
	}
	return parseSlot(f.Date, f.Time)
}

// RescheduleRequest moves an appointment to another slot.
type RescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// CancelRequest is the optional body of a cancel call.
type CancelRequest struct {
	Status Status `json:"status,omitempty"`
}

// StatusUpdate is an admin change to an appointment.
type StatusUpdate struct {
	Status *Status `json:"status,omitempty"`
	IsPaid *bool   `json:"is_paid,omitempty"`
}

func parseSlot(date, clock string) (time.Time, scheduling.TimeOfDay, error) {
	d, err := scheduling.ParseDate(date)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidBooking)
	}
	t, err := scheduling.ParseTimeOfDay(clock)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: time must be HH:MM or HH:MM:SS", ErrInvalidBooking)
	}
	return d, t, nil
}

// DoctorRef names the doctor on an appointment view.
type DoctorRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// ServiceLine is one service on an appointment, priced for its doctor.
type ServiceLine struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}

// View is the JSON representation of an appointment.
type View struct {
	ID        int64         `json:"id"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	Status    Status        `json:"status"`
	IsPaid    bool          `json:"is_paid"`
	Doctor    DoctorRef     `json:"doctor"`
	Services  []ServiceLine `json:"services"`
	Price     string        `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
}

// BookingResult is returned by a successful booking. Token grants read
// access to the appointment without logging in.
type BookingResult struct {
	Appointment View   `json:"appointment"`
	Price       string `json:"price"`
	Token       string `json:"token"`
}
