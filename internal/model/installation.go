package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type InstallationStatus string

const (
	InstallationStatusScheduled  InstallationStatus = "scheduled"
	InstallationStatusInProgress InstallationStatus = "in_progress"
	InstallationStatusCompleted  InstallationStatus = "completed"
	InstallationStatusCancelled  InstallationStatus = "cancelled"
)

// InstallationStatuses lists the vocabulary in lifecycle order.
var InstallationStatuses = []InstallationStatus{
	InstallationStatusScheduled,
	InstallationStatusInProgress,
	InstallationStatusCompleted,
	InstallationStatusCancelled,
}

var installationTransitions = map[InstallationStatus][]InstallationStatus{
	InstallationStatusScheduled:  {InstallationStatusInProgress, InstallationStatusCancelled},
	InstallationStatusInProgress: {InstallationStatusCompleted, InstallationStatusCancelled},
}

func (s InstallationStatus) Valid() bool {
	switch s {
	case InstallationStatusScheduled, InstallationStatusInProgress, InstallationStatusCompleted, InstallationStatusCancelled:
		return true
	}
	return false
}

func (s InstallationStatus) CanTransitionTo(to InstallationStatus) bool {
	return allowed(installationTransitions, s, to)
}

func (s InstallationStatus) Terminal() bool {
	return s == InstallationStatusCompleted || s == InstallationStatusCancelled
}

type Installation struct {
	Base
	CustomerID         uuid.UUID          `json:"customer_id" db:"customer_id"`
	InstallationNumber string             `json:"installation_number" db:"installation_number"`
	Address            string             `json:"address" db:"address"`
	ScheduledDate      *time.Time         `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedDate      *time.Time         `json:"completed_date,omitempty" db:"completed_date"`
	SystemSizeKW       float64            `json:"system_size_kw" db:"system_size_kw"`
	TotalValue         float64            `json:"total_value" db:"total_value"`
	Notes              string             `json:"notes,omitempty" db:"notes"`
	Status             InstallationStatus `json:"status" db:"status"`
}

// ApplyStatus validates the change against the transition table and applies
// it together with its derived fields. The receiver is untouched on error.
func (i *Installation) ApplyStatus(to InstallationStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(to) {
		return apperrors.NewInvalidTransition(string(EntityInstallation), string(i.Status), string(to))
	}
	i.Status = to
	// completed_date is history: stamped once, never cleared.
	if to == InstallationStatusCompleted && i.CompletedDate == nil {
		stamp := now
		i.CompletedDate = &stamp
	}
	i.UpdatedAt = now
	return nil
}

// AcceptChild reports whether a milestone or permit may be added. A
// cancelled installation takes no new work.
func (i *Installation) AcceptChild(entity EntityType) error {
	if i.Status == InstallationStatusCancelled {
		return apperrors.NewConflict(fmt.Sprintf("cannot add %s to a cancelled installation", entity), nil)
	}
	return nil
}

// FormatInstallationNumber renders the per-tenant sequence value.
func FormatInstallationNumber(seq int64) string {
	return fmt.Sprintf("INS-%06d", seq)
}

type CreateInstallationRequest struct {
	CustomerID     uuid.UUID `json:"customer_id" binding:"required"`
	Address        string    `json:"address" binding:"required,max=500"`
	ScheduledDate  time.Time `json:"scheduled_date" binding:"required"`
	SystemSizeKW   float64   `json:"system_size_kw" binding:"gte=0"`
	TotalValue     float64   `json:"total_value" binding:"gte=0"`
	Notes          string    `json:"notes" binding:"max=2000"`
	SeedMilestones bool      `json:"seed_milestones"`
}

type InstallationFilters struct {
	Status     InstallationStatus
	CustomerID uuid.UUID
}
