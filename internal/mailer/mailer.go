// Package mailer delivers transactional email.  The provider client is
// chosen from configuration; an unconfigured mailer degrades to a noop
// whose errors callers surface as an emailSent:false flag, never as a
// failed request.
package mailer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tbnobed/obview/internal/config"
)

// ErrDisabled is returned by the noop sender so callers can tell
// "sending is off" apart from a provider failure.
var ErrDisabled = errors.New("mailer disabled")

// Message is one outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.  Implementations must respect ctx.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the sender for the configured provider.
func NewSender(cfg config.Config, logger *zap.Logger) Sender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if cfg.EmailAPIKey == "" {
			logger.Warn("sendgrid selected but EMAIL_API_KEY empty, email disabled")
			return noopSender{}
		}
		return &sendgridSender{
			endpoint: cfg.EmailEndpoint,
			apiKey:   cfg.EmailAPIKey,
			client:   &http.Client{Timeout: 10 * time.Second},
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			logger.Warn("smtp selected but SMTP_HOST empty, email disabled")
			return noopSender{}
		}
		return &smtpSender{
			host: cfg.SMTPHost,
			port: cfg.SMTPPort,
			user: cfg.SMTPUser,
			pass: cfg.SMTPPass,
		}
	default:
		return noopSender{}
	}
}

type noopSender struct{}

func (noopSender) Send(ctx context.Context, msg Message) error {
	return ErrDisabled
}
