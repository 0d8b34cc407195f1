package event

import (
	"context"
	"fmt"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/messaging"
)

type EventService struct {
	broker  messaging.Broker
	channel string
}

func NewEventService(broker messaging.Broker, channel string) *EventService {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	if channel == "" {
		channel = "lifecycle_events"
	}
	return &EventService{
		broker:  broker,
		channel: channel,
	}
}

// Emit publishes a committed transition. Delivery is best effort; the caller
// decides what to do with the error.
func (s *EventService) Emit(ctx context.Context, t *model.StatusTransition) error {
	if t == nil {
		return nil
	}
	msg := messaging.Message{
		Type:    TypeStatusChanged,
		Payload: FromTransition(t),
	}
	if err := s.broker.Publish(ctx, s.channel, msg); err != nil {
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}
	return nil
}
