package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
)

const TypeStatusChanged = "status_changed"

// LifecycleEvent is the broker payload for one applied transition.
type LifecycleEvent struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	InstallationID uuid.UUID        `json:"installation_id"`
	EntityType     model.EntityType `json:"entity_type"`
	EntityID       uuid.UUID        `json:"entity_id"`
	From           string           `json:"from"`
	To             string           `json:"to"`
	OccurredAt     time.Time        `json:"occurred_at"`
}

func FromTransition(t *model.StatusTransition) *LifecycleEvent {
	return &LifecycleEvent{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		InstallationID: t.InstallationID,
		EntityType:     t.EntityType,
		EntityID:       t.EntityID,
		From:           t.FromStatus,
		To:             t.ToStatus,
		OccurredAt:     t.OccurredAt,
	}
}
