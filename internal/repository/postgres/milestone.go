package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

const milestoneColumns = `id, organization_id, installation_id, position, type, name, scheduled_date, completed_date, assignee, notes, status, created_at, updated_at`

// lockParent takes a lock on the owning installation so that milestone and
// permit writes serialize against status changes of the installation itself.
func lockParent(ctx context.Context, tx *sqlx.Tx, orgID, installationID uuid.UUID, mode string) (*model.Installation, error) {
	query := `SELECT ` + installationColumns + ` FROM installations WHERE organization_id = $1 AND id = $2 ` + mode

	var inst model.Installation
	if err := tx.GetContext(ctx, &inst, query, orgID, installationID); err != nil {
		return nil, notFoundOr(err, "installation", "load installation")
	}
	return &inst, nil
}

func (r *milestoneRepository) Create(ctx context.Context, m *model.Milestone) error {
	query := `
		INSERT INTO milestones (
			id, organization_id, installation_id, position, type, name,
			scheduled_date, completed_date, assignee, notes, status, created_at, updated_at
		) VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM milestones WHERE installation_id = $3),
			$4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING position
	`
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		parent, err := lockParent(ctx, tx, m.OrganizationID, m.InstallationID, "FOR UPDATE")
		if err != nil {
			return err
		}
		if err := parent.AcceptChild(model.EntityMilestone); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &m.Position, query,
			m.ID,
			m.OrganizationID,
			m.InstallationID,
			m.Type,
			m.Name,
			m.ScheduledDate,
			m.CompletedDate,
			m.Assignee,
			m.Notes,
			m.Status,
			m.CreatedAt,
			m.UpdatedAt,
		)
		if err != nil {
			return apperrors.NewPersistence("create milestone", err)
		}
		return nil
	})
}

func (r *milestoneRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE organization_id = $1 AND id = $2`

	var m model.Milestone
	if err := r.db.GetContext(ctx, &m, query, orgID, id); err != nil {
		return nil, notFoundOr(err, "milestone", "get milestone")
	}
	return &m, nil
}

func (r *milestoneRepository) List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE organization_id = $1 AND installation_id = $2 ORDER BY position ASC`

	milestones := []*model.Milestone{}
	if err := r.db.SelectContext(ctx, &milestones, query, orgID, installationID); err != nil {
		return nil, apperrors.NewPersistence("list milestones", err)
	}
	return milestones, nil
}

func (r *milestoneRepository) Mutate(ctx context.Context, orgID, id uuid.UUID, fn repository.MilestoneMutation) (*model.Milestone, error) {
	lock := `SELECT ` + milestoneColumns + ` FROM milestones WHERE organization_id = $1 AND id = $2 FOR UPDATE`
	update := `UPDATE milestones SET status = $1, completed_date = $2, updated_at = $3 WHERE organization_id = $4 AND id = $5`

	var m model.Milestone
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &m, lock, orgID, id); err != nil {
			return notFoundOr(err, "milestone", "load milestone")
		}
		parent, err := lockParent(ctx, tx, orgID, m.InstallationID, "FOR SHARE")
		if err != nil {
			return err
		}

		transition, err := fn(&m, parent)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, update, m.Status, m.CompletedDate, m.UpdatedAt, orgID, id); err != nil {
			return apperrors.NewPersistence("update milestone", err)
		}
		return recordTransition(ctx, tx, transition)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
