package bootstrap

import (
	appconfig "github.com/wolfman30/clinic-booking/internal/config"
	"github.com/wolfman30/clinic-booking/internal/notify"
	"github.com/wolfman30/clinic-booking/pkg/logging"
)

// BuildEmailSender picks the staff email transport from EMAIL_PROVIDER. A
// provider that is not fully configured falls back to the logging stub.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger)
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("email provider configured", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub")
	case "ses":
		if cfg.SESFromEmail == "" {
			logger.Warn("ses selected but SES_FROM_EMAIL empty; using stub")
			break
		}
		if sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.ClinicName,
		}, logger); sender != nil {
			logger.Info("email provider configured", "provider", "ses")
			return sender
		}
		logger.Warn("ses selected but no client available; using stub")
	}
	return notify.NewStubEmailSender(logger)
}
