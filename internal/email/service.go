package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/solar-lifecycle-api/config"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
)

// Message is one rendered email ready for delivery.
type Message struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

type Service interface {
	// Send hands msg to the mail server and returns the Message-ID it was
	// sent with.
	Send(ctx context.Context, msg *Message) (string, error)
}

// Dialer is the part of *gomail.Dialer the sender needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPService struct {
	dialer   Dialer
	from     string
	fromName string
	domain   string
	timeout  time.Duration
	cb       *gobreaker.CircuitBreaker
	logger   *logger.Logger
}

func NewSMTPService(cfg config.SMTPConfig, log *logger.Logger) *SMTPService {
	return NewService(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, log)
}

// NewService builds a sender on top of an arbitrary dialer.
func NewService(dialer Dialer, cfg config.SMTPConfig, log *logger.Logger) *SMTPService {
	domain := "localhost"
	if at := strings.LastIndex(cfg.From, "@"); at >= 0 && at < len(cfg.From)-1 {
		domain = cfg.From[at+1:]
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SMTPService{
		dialer:   dialer,
		from:     cfg.From,
		fromName: cfg.FromName,
		domain:   domain,
		timeout:  timeout,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		logger: log,
	}
}

func (s *SMTPService) Send(ctx context.Context, msg *Message) (string, error) {
	if msg == nil || msg.To == "" {
		return "", errors.New("message has no recipient")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.domain)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.dialAndSend(ctx, m)
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("email sent", "message_id", messageID)
	return messageID, nil
}

// dialAndSend gives up waiting once ctx is done. gomail has no context
// support, so the SMTP session itself may still run to completion.
func (s *SMTPService) dialAndSend(ctx context.Context, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
