package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

const installationColumns = `id, organization_id, customer_id, installation_number, address, scheduled_date, completed_date, system_size_kw, total_value, notes, status, created_at, updated_at`

const nextInstallationSeq = `INSERT INTO installation_counters (organization_id, last_value) VALUES ($1, 1) ON CONFLICT (organization_id) DO UPDATE SET last_value = installation_counters.last_value + 1 RETURNING last_value`

const insertMilestoneAt = `
	INSERT INTO milestones (
		id, organization_id, installation_id, position, type, name,
		scheduled_date, completed_date, assignee, notes, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

func (r *installationRepository) Create(ctx context.Context, inst *model.Installation, milestones ...*model.Milestone) error {
	query := `
		INSERT INTO installations (
			id, organization_id, customer_id, installation_number, address,
			scheduled_date, completed_date, system_size_kw, total_value, notes,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var seq int64
		if err := tx.GetContext(ctx, &seq, nextInstallationSeq, inst.OrganizationID); err != nil {
			return apperrors.NewPersistence("allocate installation number", err)
		}
		inst.InstallationNumber = model.FormatInstallationNumber(seq)

		_, err := tx.ExecContext(ctx, query,
			inst.ID,
			inst.OrganizationID,
			inst.CustomerID,
			inst.InstallationNumber,
			inst.Address,
			inst.ScheduledDate,
			inst.CompletedDate,
			inst.SystemSizeKW,
			inst.TotalValue,
			inst.Notes,
			inst.Status,
			inst.CreatedAt,
			inst.UpdatedAt,
		)
		if err != nil {
			return apperrors.NewPersistence("create installation", err)
		}

		for i, m := range milestones {
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			m.OrganizationID = inst.OrganizationID
			m.InstallationID = inst.ID
			m.Position = i + 1
			m.CreatedAt = now
			m.UpdatedAt = now

			_, err := tx.ExecContext(ctx, insertMilestoneAt,
				m.ID,
				m.OrganizationID,
				m.InstallationID,
				m.Position,
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
		}
		return nil
	})
}

func (r *installationRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Installation, error) {
	query := `SELECT ` + installationColumns + ` FROM installations WHERE organization_id = $1 AND id = $2`

	var inst model.Installation
	if err := r.db.GetContext(ctx, &inst, query, orgID, id); err != nil {
		return nil, notFoundOr(err, "installation", "get installation")
	}
	return &inst, nil
}

func (r *installationRepository) List(ctx context.Context, orgID uuid.UUID, filters *model.InstallationFilters) ([]*model.Installation, error) {
	query := `SELECT ` + installationColumns + ` FROM installations WHERE organization_id = $1`
	args := []interface{}{orgID}
	argCount := 2

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.CustomerID != uuid.Nil {
			query += fmt.Sprintf(" AND customer_id = $%d", argCount)
			args = append(args, filters.CustomerID)
			argCount++
		}
	}

	query += " ORDER BY installation_number ASC"

	installations := []*model.Installation{}
	if err := r.db.SelectContext(ctx, &installations, query, args...); err != nil {
		return nil, apperrors.NewPersistence("list installations", err)
	}
	return installations, nil
}

func (r *installationRepository) Mutate(ctx context.Context, orgID, id uuid.UUID, fn repository.InstallationMutation) (*model.Installation, error) {
	lock := `SELECT ` + installationColumns + ` FROM installations WHERE organization_id = $1 AND id = $2 FOR UPDATE`
	update := `UPDATE installations SET status = $1, completed_date = $2, updated_at = $3 WHERE organization_id = $4 AND id = $5`

	var inst model.Installation
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &inst, lock, orgID, id); err != nil {
			return notFoundOr(err, "installation", "load installation")
		}

		transition, err := fn(&inst)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, update, inst.Status, inst.CompletedDate, inst.UpdatedAt, orgID, id); err != nil {
			return apperrors.NewPersistence("update installation", err)
		}
		return recordTransition(ctx, tx, transition)
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}
