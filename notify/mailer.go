package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"pricewatch/models"
)

// ErrInvalidRecipient is returned for addresses that do not parse
var ErrInvalidRecipient = errors.New("invalid recipient address")

// Mailer delivers a rendered email to a single recipient
type Mailer interface {
	Send(ctx context.Context, recipient string, email models.Email) error
}

// SMTPConfig holds SMTP server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends HTML email over SMTP
type SMTPMailer struct {
	from   string
	dialer dialer
	log    logrus.FieldLogger
}

// NewSMTPMailer creates a mailer for the configured server
func NewSMTPMailer(cfg SMTPConfig, log logrus.FieldLogger) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log.WithField("component", "mailer"),
	}
}

// Send delivers one message
func (m *SMTPMailer) Send(ctx context.Context, recipient string, email models.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	address, err := NormalizeEmail(recipient)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", address, err)
	}

	m.log.WithField("recipient", address).Infof("📧 Sent %q", email.Subject)
	return nil
}

// NormalizeEmail trims, lower-cases and validates an address
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", ErrInvalidRecipient
	}

	parsed, err := mail.ParseAddress(trimmed)
	if err != nil || parsed.Address != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, raw)
	}
	return parsed.Address, nil
}

// Dispatch sends email to every recipient concurrently. Each failure is
// recorded against its recipient; one bad address never stops the others.
// Results are returned in recipient order.
func Dispatch(ctx context.Context, mailer Mailer, recipients []string, email models.Email) []models.DeliveryResult {
	results := make([]models.DeliveryResult, len(recipients))

	var wg sync.WaitGroup
	for i, recipient := range recipients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = models.DeliveryResult{
				Recipient: recipient,
				Err:       mailer.Send(ctx, recipient, email),
			}
		}()
	}
	wg.Wait()

	return results
}
