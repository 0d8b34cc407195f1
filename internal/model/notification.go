package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerContact is the subset of a customer record needed to reach them.
type CustomerContact struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Email          string    `json:"email" db:"email"`
	DisplayName    string    `json:"display_name" db:"display_name"`
}

// NotificationEvent is built once per customer-visible transition and used
// to produce a single outbound message. It is never stored.
type NotificationEvent struct {
	OrganizationID     uuid.UUID          `json:"organization_id" validate:"required"`
	InstallationID     uuid.UUID          `json:"installation_id" validate:"required"`
	InstallationNumber string             `json:"installation_number" validate:"required"`
	Address            string             `json:"address"`
	ScheduledDate      *time.Time         `json:"scheduled_date,omitempty"`
	Status             InstallationStatus `json:"status" validate:"required"`
	MilestoneName      string             `json:"milestone_name,omitempty"`
	NextStep           string             `json:"next_step,omitempty"`
	CustomerEmail      string             `json:"customer_email" validate:"required,email"`
	CustomerName       string             `json:"customer_name"`
}

// NewNotificationEvent derives the event from an installation and its customer.
func NewNotificationEvent(inst *Installation, contact *CustomerContact) *NotificationEvent {
	return &NotificationEvent{
		OrganizationID:     inst.OrganizationID,
		InstallationID:     inst.ID,
		InstallationNumber: inst.InstallationNumber,
		Address:            inst.Address,
		ScheduledDate:      inst.ScheduledDate,
		Status:             inst.Status,
		CustomerEmail:      contact.Email,
		CustomerName:       contact.DisplayName,
	}
}

// DispatchResult reports the outcome of a notification attempt separately
// from the status change that triggered it.
type DispatchResult struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

func DispatchSucceeded(messageID string) *DispatchResult {
	return &DispatchResult{Sent: true, MessageID: messageID}
}

func DispatchFailed(err error) *DispatchResult {
	return &DispatchResult{Sent: false, Error: err.Error(), Err: err}
}

type ManualUpdateRequest struct {
	Status        *InstallationStatus `json:"status"`
	MilestoneName string              `json:"milestone_name" binding:"max=200"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}
