package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/internal/email"
	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, msg *email.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newEvent(status model.InstallationStatus) *model.NotificationEvent {
	scheduled := time.Date(2026, 4, 14, 8, 0, 0, 0, time.UTC)
	return &model.NotificationEvent{
		OrganizationID:     uuid.New(),
		InstallationID:     uuid.New(),
		InstallationNumber: "INS-000123",
		Address:            "12 Solar Way",
		ScheduledDate:      &scheduled,
		Status:             status,
		CustomerEmail:      "dana@example.com",
		CustomerName:       "Dana",
	}
}

func TestRender_SelectsTemplateByStatus(t *testing.T) {
	tests := []struct {
		status  model.InstallationStatus
		subject string
		body    string
	}{
		{model.InstallationStatusScheduled, "Your solar installation INS-000123 is scheduled", "scheduled for April 14, 2026"},
		{model.InstallationStatusInProgress, "Work has started on your solar installation INS-000123", "Our crew is now working"},
		{model.InstallationStatusCompleted, "Your solar installation INS-000123 is complete", "Thank you for choosing SunCo"},
		{model.InstallationStatusCancelled, "Update on your solar installation INS-000123", "Its current status is cancelled"},
		{model.InstallationStatus("paused"), "Update on your solar installation INS-000123", "Its current status is paused"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			msg, err := Render(newEvent(tt.status), "SunCo", "help@sunco.example")
			require.NoError(t, err)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Contains(t, msg.TextBody, tt.body)
			assert.Contains(t, msg.TextBody, "Hello Dana")
			assert.Contains(t, msg.HTMLBody, "mailto:help@sunco.example")
			assert.Equal(t, "dana@example.com", msg.To)
		})
	}
}

func TestRender_InterpolatesMilestoneAndNextStep(t *testing.T) {
	event := newEvent(model.InstallationStatusInProgress)
	event.MilestoneName = "Site Survey"
	event.NextStep = "System Design"

	msg, err := Render(event, "SunCo", "")
	require.NoError(t, err)
	assert.Contains(t, msg.TextBody, "Milestone completed: Site Survey")
	assert.Contains(t, msg.TextBody, "Next step: System Design")
	assert.Contains(t, msg.HTMLBody, "<strong>Site Survey</strong>")

	event.NextStep = ""
	msg, err = Render(event, "SunCo", "")
	require.NoError(t, err)
	assert.NotContains(t, msg.TextBody, "Next step")
}

func TestRender_WithoutMilestone(t *testing.T) {
	msg, err := Render(newEvent(model.InstallationStatusInProgress), "SunCo", "")
	require.NoError(t, err)
	assert.NotContains(t, msg.TextBody, "Milestone completed")
}

func TestRender_EscapesHTML(t *testing.T) {
	event := newEvent(model.InstallationStatusScheduled)
	event.Address = "<script>x</script>"

	msg, err := Render(event, "SunCo", "")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.Contains(t, msg.TextBody, "<script>x</script>")
}

func TestSend(t *testing.T) {
	cfg := Config{Enabled: true, CompanyName: "SunCo"}

	t.Run("delivers rendered message", func(t *testing.T) {
		transport := new(mockEmail)
		svc := NewService(cfg, transport)
		transport.On("Send", mock.Anything, mock.MatchedBy(func(m *email.Message) bool {
			return m.To == "dana@example.com" && m.Subject == "Work has started on your solar installation INS-000123"
		})).Return("<id@sunco.example>", nil)

		id, err := svc.Send(context.Background(), newEvent(model.InstallationStatusInProgress))
		require.NoError(t, err)
		assert.Equal(t, "<id@sunco.example>", id)
		transport.AssertExpectations(t)
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		transport := new(mockEmail)
		svc := NewService(cfg, transport)
		transport.On("Send", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

		_, err := svc.Send(context.Background(), newEvent(model.InstallationStatusCompleted))
		require.Error(t, err)
	})

	t.Run("invalid recipient is rejected before sending", func(t *testing.T) {
		transport := new(mockEmail)
		svc := NewService(cfg, transport)
		event := newEvent(model.InstallationStatusCompleted)
		event.CustomerEmail = "not-an-address"

		_, err := svc.Send(context.Background(), event)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
		transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("disabled", func(t *testing.T) {
		transport := new(mockEmail)
		svc := NewService(Config{Enabled: false}, transport)

		_, err := svc.Send(context.Background(), newEvent(model.InstallationStatusCompleted))
		assert.ErrorIs(t, err, ErrDisabled)
		transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
