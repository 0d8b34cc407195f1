package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/messaging"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func TestEmit_PublishesTransition(t *testing.T) {
	broker := new(mockBroker)
	svc := NewEventService(broker, "lifecycle_events")

	instID := uuid.New()
	tr := model.NewTransition(uuid.New(), instID, model.EntityInstallation, instID, "scheduled", "in_progress", time.Now())

	broker.On("Publish", mock.Anything, "lifecycle_events", mock.MatchedBy(func(msg messaging.Message) bool {
		ev, ok := msg.Payload.(*LifecycleEvent)
		return ok && msg.Type == TypeStatusChanged && ev.To == "in_progress" && ev.InstallationID == instID
	})).Return(nil)

	require.NoError(t, svc.Emit(context.Background(), tr))
	broker.AssertExpectations(t)
}

func TestEmit_WrapsBrokerError(t *testing.T) {
	broker := new(mockBroker)
	svc := NewEventService(broker, "")
	broker.On("Publish", mock.Anything, "lifecycle_events", mock.Anything).Return(errors.New("circuit breaker is open"))

	instID := uuid.New()
	err := svc.Emit(context.Background(), model.NewTransition(uuid.New(), instID, model.EntityPermit, uuid.New(), "submitted", "approved", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}

func TestEmit_NilTransitionAndNopBroker(t *testing.T) {
	svc := NewEventService(nil, "")
	assert.NoError(t, svc.Emit(context.Background(), nil))

	instID := uuid.New()
	assert.NoError(t, svc.Emit(context.Background(), model.NewTransition(uuid.New(), instID, model.EntityInstallation, instID, "a", "b", time.Now())))
}
