package bootstrap

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

type nopSES struct{}

func (nopSES) SendEmail(context.Context, *sesv2.SendEmailInput, ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	return &sesv2.SendEmailOutput{}, nil
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.New("error")
	tests := []struct {
		name string
		cfg  *appconfig.Config
		ses  notify.SESAPI
		want string
	}{
		{"default stub", &appconfig.Config{EmailProvider: "stub"}, nil, "stub"},
		{"sendgrid without key", &appconfig.Config{EmailProvider: "sendgrid"}, nil, "stub"},
		{"sendgrid", &appconfig.Config{EmailProvider: "sendgrid", SendGridAPIKey: "SG.test", SendGridFromEmail: "noreply@example.com"}, nil, "sendgrid"},
		{"ses without client", &appconfig.Config{EmailProvider: "ses", SESFromEmail: "noreply@example.com"}, nil, "stub"},
		{"ses without sender", &appconfig.Config{EmailProvider: "ses"}, nopSES{}, "stub"},
		{"ses", &appconfig.Config{EmailProvider: "ses", SESFromEmail: "noreply@example.com"}, nopSES{}, "ses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			switch BuildEmailSender(tt.cfg, tt.ses, logger).(type) {
			case *notify.SendGridSender:
				got = "sendgrid"
			case *notify.SESSender:
				got = "ses"
			case *notify.StubEmailSender:
				got = "stub"
			}
			if got != tt.want {
				t.Fatalf("expected %s sender, got %q", tt.want, got)
			}
		})
	}
}
