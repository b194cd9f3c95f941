package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/clinic-booking/internal/clinic"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// SettingsProvider supplies the clinic name and staff recipients.
type SettingsProvider interface {
	Get(ctx context.Context) (*clinic.Settings, error)
}

// AppointmentEvent describes an appointment change for staff.
type AppointmentEvent struct {
	AppointmentID int64
	DoctorName    string
	PatientName   string
	PatientPhone  string
	Date          string
	Time          string
	Services      []string
	Total         string
	PreviousDate  string
	PreviousTime  string
}

// Notifier emails clinic staff about appointment changes.
type Notifier struct {
	email    EmailSender
	settings SettingsProvider
	logger   *logging.Logger
}

// NewNotifier creates a staff notifier. A nil email sender disables it.
func NewNotifier(email EmailSender, settings SettingsProvider, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{email: email, settings: settings, logger: logger}
}

func (n *Notifier) AppointmentBooked(ctx context.Context, evt AppointmentEvent) error {
	body := fmt.Sprintf(`A new appointment was booked.

Appointment: #%d
Patient: %s
Phone: %s
Doctor: %s
When: %s at %s
Services: %s
Total: %s`, evt.AppointmentID, evt.PatientName, evt.PatientPhone, evt.DoctorName, evt.Date, evt.Time, strings.Join(evt.Services, ", "), evt.Total)
	return n.send(ctx, "appointment_booked", fmt.Sprintf("New appointment #%d - %s", evt.AppointmentID, evt.DoctorName), body, evt)
}

func (n *Notifier) AppointmentCancelled(ctx context.Context, evt AppointmentEvent) error {
	body := fmt.Sprintf(`An appointment was cancelled by the patient.

Appointment: #%d
Patient: %s
Doctor: %s
Was: %s at %s`, evt.AppointmentID, evt.PatientName, evt.DoctorName, evt.Date, evt.Time)
	return n.send(ctx, "appointment_cancelled", fmt.Sprintf("Appointment #%d cancelled", evt.AppointmentID), body, evt)
}

func (n *Notifier) AppointmentRescheduled(ctx context.Context, evt AppointmentEvent) error {
	body := fmt.Sprintf(`An appointment was moved by the patient.

Appointment: #%d
Patient: %s
Doctor: %s
From: %s at %s
To: %s at %s`, evt.AppointmentID, evt.PatientName, evt.DoctorName, evt.PreviousDate, evt.PreviousTime, evt.Date, evt.Time)
	return n.send(ctx, "appointment_rescheduled", fmt.Sprintf("Appointment #%d rescheduled", evt.AppointmentID), body, evt)
}

func (n *Notifier) send(ctx context.Context, category, subject, body string, evt AppointmentEvent) error {
	if n == nil || n.email == nil || n.settings == nil {
		return nil
	}
	cfg, err := n.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("notify: get clinic settings: %w", err)
	}
	if len(cfg.NotifyEmails) == 0 {
		n.logger.Debug("notify: no staff recipients configured", "category", category)
		return nil
	}

	to := make([]Recipient, 0, len(cfg.NotifyEmails))
	for _, addr := range cfg.NotifyEmails {
		to = append(to, Recipient{Email: addr})
	}
	msg := EmailMessage{
		To:       to,
		Subject:  fmt.Sprintf("[%s] %s", cfg.Name, subject),
		Body:     body + "\n\n-- " + cfg.Name,
		Category: category,
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: %s: %w", category, err)
	}
	n.logger.Info("notify: staff email sent", "category", category, "appointment_id", evt.AppointmentID, "recipients", len(to))
	return nil
}
