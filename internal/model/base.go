package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all tenant-scoped models
type Base struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// EntityType names the kind of record a transition applies to
type EntityType string

const (
	EntityInstallation EntityType = "installation"
	EntityMilestone    EntityType = "milestone"
	EntityPermit       EntityType = "permit"
)

// StatusTransition is one applied status change, kept as history
type StatusTransition struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	InstallationID uuid.UUID  `json:"installation_id" db:"installation_id"`
	EntityType     EntityType `json:"entity_type" db:"entity_type"`
	EntityID       uuid.UUID  `json:"entity_id" db:"entity_id"`
	FromStatus     string     `json:"from_status" db:"from_status"`
	ToStatus       string     `json:"to_status" db:"to_status"`
	OccurredAt     time.Time  `json:"occurred_at" db:"occurred_at"`
}

// NewTransition records a change on entityID belonging to installationID.
func NewTransition(orgID, installationID uuid.UUID, entity EntityType, entityID uuid.UUID, from, to string, at time.Time) *StatusTransition {
	return &StatusTransition{
		ID:             uuid.New(),
		OrganizationID: orgID,
		InstallationID: installationID,
		EntityType:     entity,
		EntityID:       entityID,
		FromStatus:     from,
		ToStatus:       to,
		OccurredAt:     at,
	}
}

// allowed reports whether to appears in the transition table row for from.
func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}
