package notify

import (
	"fmt"

	"github.com/remindly/remind-api/internal/config"
	"go.uber.org/zap"
)

// Build constructs handlers from the channels configuration. Channels that
// cannot be constructed (amqp broker down, smtp unconfigured) are skipped
// with a warning so one bad channel does not keep the scheduler from
// starting.
func Build(cfg *config.Config, channels []config.Channel, logger *zap.Logger) []Handler {
	var handlers []Handler

	for _, ch := range channels {
		h, err := build(cfg, ch)
		if err != nil {
			logger.Warn("notification_channel_skipped",
				zap.String("channel", ch.Type),
				zap.Error(err),
			)
			continue
		}
		handlers = append(handlers, h)
		logger.Info("notification_channel_registered", zap.String("channel", ch.Type))
	}

	return handlers
}

func build(cfg *config.Config, ch config.Channel) (Handler, error) {
	switch ch.Type {
	case "console":
		return NewConsoleHandler(), nil
	case "file":
		return NewFileHandler(ch.Path), nil
	case "webhook":
		return NewWebhookHandler(ch.URL), nil
	case "email":
		smtpCfg := SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			To:       cfg.SMTPTo,
		}
		if ch.To != "" {
			smtpCfg.To = ch.To
		}
		if !smtpCfg.Configured() {
			return nil, fmt.Errorf("smtp not configured")
		}
		return NewEmailHandler(smtpCfg), nil
	case "amqp":
		url := ch.URL
		if url == "" {
			url = cfg.RabbitMQURL
		}
		if url == "" {
			return nil, fmt.Errorf("no amqp url configured")
		}
		return NewAMQPHandler(url)
	default:
		return nil, fmt.Errorf("unknown channel type %q", ch.Type)
	}
}
