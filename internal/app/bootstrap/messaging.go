package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
	"github.com/wolfman30/vitalpoint-assistant/internal/events"
	"github.com/wolfman30/vitalpoint-assistant/internal/notify"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// BuildEmailSender picks the confirmation email provider. Misconfigured
// providers degrade to the stub sender so bookings still complete.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	from := cfg.EmailFromName
	if from == "" {
		from = cfg.ClinicName
	}

	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  from,
		}, logger)
		if sender != nil {
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY is empty; using stub email sender")
	case "ses":
		if awsCfg != nil {
			return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  from,
			}, logger)
		}
		logger.Warn("ses selected without aws config; using stub email sender")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildPublisher returns the SQS publisher when a queue is configured.
func BuildPublisher(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) events.Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	queueURL := strings.TrimSpace(cfg.BookingEventsQueueURL)
	if queueURL == "" || awsCfg == nil {
		return events.NewLogPublisher(logger)
	}
	return events.NewSQSPublisher(sqs.NewFromConfig(*awsCfg), queueURL, logger)
}
