package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/solar-lifecycle-api/internal/email"
	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// ErrDisabled is returned by Send when outbound notifications are switched off.
var ErrDisabled = errors.New("notifications are disabled")

type Service interface {
	// Send renders the event and hands it to the transport, returning the
	// provider message id.
	Send(ctx context.Context, event *model.NotificationEvent) (string, error)
}

type Config struct {
	Enabled      bool
	CompanyName  string
	SupportEmail string
}

type service struct {
	cfg      Config
	emailSvc email.Service
	validate *validator.Validate
}

func NewService(cfg Config, emailSvc email.Service) Service {
	return &service{
		cfg:      cfg,
		emailSvc: emailSvc,
		validate: validator.New(),
	}
}

func (s *service) Send(ctx context.Context, event *model.NotificationEvent) (string, error) {
	if !s.cfg.Enabled {
		return "", ErrDisabled
	}
	if err := s.validate.Struct(event); err != nil {
		return "", apperrors.NewBadRequest("invalid notification event", err)
	}

	msg, err := Render(event, s.cfg.CompanyName, s.cfg.SupportEmail)
	if err != nil {
		return "", err
	}

	id, err := s.emailSvc.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	return id, nil
}

type view struct {
	Event        *model.NotificationEvent
	Name         string
	Status       string
	Company      string
	SupportEmail string
}

// Render selects the template for the event's installation status, falling
// back to a generic update, and fills it in. It depends only on its inputs.
func Render(event *model.NotificationEvent, company, supportEmail string) (*email.Message, error) {
	v := view{
		Event:        event,
		Name:         event.CustomerName,
		Status:       strings.ReplaceAll(string(event.Status), "_", " "),
		Company:      company,
		SupportEmail: supportEmail,
	}
	if v.Name == "" {
		v.Name = "there"
	}

	c := lookup(event.Status)

	var subject, text, html bytes.Buffer
	if err := c.subject.Execute(&subject, v); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := c.text.Execute(&text, v); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	if err := c.html.Execute(&html, v); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &email.Message{
		To:       event.CustomerEmail,
		ToName:   event.CustomerName,
		Subject:  subject.String(),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
