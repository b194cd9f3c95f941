package notify

import (
	"context"
	"regexp"
	"strings"

	"github.com/wolfman30/clinic-booking/internal/phone"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// SMSSender delivers text messages to patients.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

var codeRe = regexp.MustCompile(`\d{4,}`)

// LogSMSSender writes messages to the log instead of a carrier. Digit runs in
// the body are masked unless Reveal is set, which local development needs to
// complete a login.
type LogSMSSender struct {
	Reveal bool
	logger *logging.Logger
}

// NewLogSMSSender creates a logging SMS sender.
func NewLogSMSSender(reveal bool, logger *logging.Logger) *LogSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSMSSender{Reveal: reveal, logger: logger}
}

func (s *LogSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if !s.Reveal {
		body = maskDigits(body)
	}
	s.logger.WithContext(ctx).Info("sms sender: would send", "to", phone.Mask(to), "body", body)
	return nil
}

func maskDigits(body string) string {
	return codeRe.ReplaceAllStringFunc(body, func(m string) string {
		return strings.Repeat("*", len(m))
	})
}

var _ SMSSender = (*LogSMSSender)(nil)
