package model

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type MilestoneType string

const (
	MilestoneTypeSiteSurvey        MilestoneType = "site-survey"
	MilestoneTypeDesign            MilestoneType = "design"
	MilestoneTypePermitting        MilestoneType = "permitting"
	MilestoneTypeEquipmentDelivery MilestoneType = "equipment-delivery"
	MilestoneTypeMounting          MilestoneType = "mounting"
	MilestoneTypeElectrical        MilestoneType = "electrical"
	MilestoneTypeInspection        MilestoneType = "inspection"
	MilestoneTypeActivation        MilestoneType = "activation"
)

// DefaultMilestones is the standard sequence seeded for a new installation.
var DefaultMilestones = []struct {
	Type MilestoneType
	Name string
}{
	{MilestoneTypeSiteSurvey, "Site Survey"},
	{MilestoneTypeDesign, "System Design"},
	{MilestoneTypePermitting, "Permitting"},
	{MilestoneTypeEquipmentDelivery, "Equipment Delivery"},
	{MilestoneTypeMounting, "Panel Mounting"},
	{MilestoneTypeElectrical, "Electrical Work"},
	{MilestoneTypeInspection, "Final Inspection"},
	{MilestoneTypeActivation, "System Activation"},
}

// NewDefaultMilestones builds the pending standard sequence for an
// installation. Positions are assigned by the store.
func NewDefaultMilestones(orgID, installationID uuid.UUID) []*Milestone {
	milestones := make([]*Milestone, 0, len(DefaultMilestones))
	for _, d := range DefaultMilestones {
		milestones = append(milestones, &Milestone{
			Base:           Base{ID: uuid.New(), OrganizationID: orgID},
			InstallationID: installationID,
			Type:           d.Type,
			Name:           d.Name,
			Status:         MilestoneStatusPending,
		})
	}
	return milestones
}

func (t MilestoneType) Valid() bool {
	switch t {
	case MilestoneTypeSiteSurvey, MilestoneTypeDesign, MilestoneTypePermitting, MilestoneTypeEquipmentDelivery,
		MilestoneTypeMounting, MilestoneTypeElectrical, MilestoneTypeInspection, MilestoneTypeActivation:
		return true
	}
	return false
}

type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "pending"
	MilestoneStatusInProgress MilestoneStatus = "in_progress"
	MilestoneStatusCompleted  MilestoneStatus = "completed"
	MilestoneStatusDelayed    MilestoneStatus = "delayed"
)

var MilestoneStatuses = []MilestoneStatus{
	MilestoneStatusPending,
	MilestoneStatusInProgress,
	MilestoneStatusCompleted,
	MilestoneStatusDelayed,
}

// Delays may be raised from any open status; a delayed milestone resumes
// through in_progress. Completed is terminal.
var milestoneTransitions = map[MilestoneStatus][]MilestoneStatus{
	MilestoneStatusPending:    {MilestoneStatusInProgress, MilestoneStatusDelayed},
	MilestoneStatusInProgress: {MilestoneStatusCompleted, MilestoneStatusDelayed},
	MilestoneStatusDelayed:    {MilestoneStatusInProgress},
}

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusInProgress, MilestoneStatusCompleted, MilestoneStatusDelayed:
		return true
	}
	return false
}

func (s MilestoneStatus) CanTransitionTo(to MilestoneStatus) bool {
	return allowed(milestoneTransitions, s, to)
}

type Milestone struct {
	Base
	InstallationID uuid.UUID       `json:"installation_id" db:"installation_id"`
	Position       int             `json:"position" db:"position"`
	Type           MilestoneType   `json:"type" db:"type"`
	Name           string          `json:"name" db:"name"`
	ScheduledDate  *time.Time      `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedDate  *time.Time      `json:"completed_date,omitempty" db:"completed_date"`
	Assignee       string          `json:"assignee,omitempty" db:"assignee"`
	Notes          string          `json:"notes,omitempty" db:"notes"`
	Status         MilestoneStatus `json:"status" db:"status"`
}

// ApplyStatus validates and applies a status change. completed_date is
// stamped on completion; no other target status can carry one because
// completed is terminal.
func (m *Milestone) ApplyStatus(to MilestoneStatus, now time.Time) error {
	if !m.Status.CanTransitionTo(to) {
		return apperrors.NewInvalidTransition(string(EntityMilestone), string(m.Status), string(to))
	}
	m.Status = to
	if to == MilestoneStatusCompleted {
		stamp := now
		m.CompletedDate = &stamp
	}
	m.UpdatedAt = now
	return nil
}

// Progress returns the rounded share of completed milestones, 0..100.
func Progress(milestones []*Milestone) int {
	if len(milestones) == 0 {
		return 0
	}
	completed := 0
	for _, m := range milestones {
		if m.Status == MilestoneStatusCompleted {
			completed++
		}
	}
	// round half up on integers: (200c + n) / 2n
	n := len(milestones)
	return (200*completed + n) / (2 * n)
}

// NextOpen returns the first milestone after position that is not completed.
func NextOpen(milestones []*Milestone, position int) *Milestone {
	for _, m := range milestones {
		if m.Position > position && m.Status != MilestoneStatusCompleted {
			return m
		}
	}
	return nil
}

type CreateMilestoneRequest struct {
	Type          MilestoneType `json:"type" binding:"required"`
	Name          string        `json:"name" binding:"required,max=200"`
	ScheduledDate *time.Time    `json:"scheduled_date"`
	Assignee      string        `json:"assignee" binding:"max=200"`
	Notes         string        `json:"notes" binding:"max=2000"`
}
