package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-booking/internal/clinic"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func staffSettings(emails ...string) clinic.StaticSettings {
	cfg := clinic.DefaultSettings()
	cfg.Name = "Downtown Clinic"
	cfg.NotifyEmails = emails
	return clinic.StaticSettings{Settings: cfg}
}

func sampleEvent() AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: 12,
		DoctorName:    "Anna Ivanova",
		PatientName:   "John Smith",
		PatientPhone:  "9161234567",
		Date:          "2025-12-09",
		Time:          "10:30:00",
		Services:      []string{"Consultation"},
		Total:         "3000.00",
		PreviousDate:  "2025-12-08",
		PreviousTime:  "09:00:00",
	}
}

func TestNotifierAppointmentBooked(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewNotifier(sender, staffSettings("desk@example.com", "head@example.com"), nil)

	require.NoError(t, n.AppointmentBooked(context.Background(), sampleEvent()))
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Len(t, msg.To, 2)
	assert.Equal(t, "appointment_booked", msg.Category)
	assert.Equal(t, "[Downtown Clinic] New appointment #12 - Anna Ivanova", msg.Subject)
	assert.Contains(t, msg.Body, "2025-12-09 at 10:30:00")
	assert.Contains(t, msg.Body, "Total: 3000.00")
}

func TestNotifierRescheduledAndCancelled(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewNotifier(sender, staffSettings("desk@example.com"), nil)

	require.NoError(t, n.AppointmentRescheduled(context.Background(), sampleEvent()))
	require.NoError(t, n.AppointmentCancelled(context.Background(), sampleEvent()))
	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].Body, "From: 2025-12-08 at 09:00:00")
	assert.Equal(t, "appointment_cancelled", sender.sent[1].Category)
}

func TestNotifierSkipsWithoutRecipientsOrSender(t *testing.T) {
	sender := &mockEmailSender{}
	require.NoError(t, NewNotifier(sender, staffSettings(), nil).AppointmentBooked(context.Background(), sampleEvent()))
	assert.Empty(t, sender.sent)

	require.NoError(t, NewNotifier(nil, staffSettings("desk@example.com"), nil).AppointmentBooked(context.Background(), sampleEvent()))

	var nilNotifier *Notifier
	require.NoError(t, nilNotifier.AppointmentBooked(context.Background(), sampleEvent()))
}

func TestNotifierPropagatesSendError(t *testing.T) {
	n := NewNotifier(&mockEmailSender{callErr: errors.New("smtp down")}, staffSettings("desk@example.com"), nil)
	err := n.AppointmentCancelled(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appointment_cancelled")
}

func TestLogSMSSenderMasksCodes(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSMSSender(false, logging.NewWithWriter(&buf, "info"))

	require.NoError(t, sender.SendSMS(context.Background(), "9161234567", "Your login code is 123456"))
	out := buf.String()
	assert.Contains(t, out, "Your login code is ******")
	assert.Contains(t, out, "******4567")
	assert.NotContains(t, out, "code is 123456")

	buf.Reset()
	revealing := NewLogSMSSender(true, logging.NewWithWriter(&buf, "info"))
	require.NoError(t, revealing.SendSMS(context.Background(), "9161234567", "Your login code is 123456"))
	assert.Contains(t, buf.String(), "123456")
}
