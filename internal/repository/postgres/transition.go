package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// ListForInstallation returns the history oldest first. Transitions stamped
// with the same instant keep their insertion order.
func (r *transitionRepository) ListForInstallation(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.StatusTransition, error) {
	query := `SELECT id, organization_id, installation_id, entity_type, entity_id, from_status, to_status, occurred_at FROM status_transitions WHERE organization_id = $1 AND installation_id = $2 ORDER BY occurred_at ASC, seq ASC`

	transitions := []*model.StatusTransition{}
	if err := r.db.SelectContext(ctx, &transitions, query, orgID, installationID); err != nil {
		return nil, apperrors.NewPersistence("list status transitions", err)
	}
	return transitions, nil
}
