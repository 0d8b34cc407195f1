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

const permitColumns = `id, organization_id, installation_id, type, permit_number, issuing_authority, application_date, approval_date, expiration_date, notes, status, created_at, updated_at`

func (r *permitRepository) Create(ctx context.Context, p *model.Permit) error {
	query := `
		INSERT INTO permits (
			id, organization_id, installation_id, type, permit_number, issuing_authority,
			application_date, approval_date, expiration_date, notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		parent, err := lockParent(ctx, tx, p.OrganizationID, p.InstallationID, "FOR SHARE")
		if err != nil {
			return err
		}
		if err := parent.AcceptChild(model.EntityPermit); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			p.ID,
			p.OrganizationID,
			p.InstallationID,
			p.Type,
			p.PermitNumber,
			p.IssuingAuthority,
			p.ApplicationDate,
			p.ApprovalDate,
			p.ExpirationDate,
			p.Notes,
			p.Status,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return apperrors.NewPersistence("create permit", err)
		}
		return nil
	})
}

func (r *permitRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Permit, error) {
	query := `SELECT ` + permitColumns + ` FROM permits WHERE organization_id = $1 AND id = $2`

	var p model.Permit
	if err := r.db.GetContext(ctx, &p, query, orgID, id); err != nil {
		return nil, notFoundOr(err, "permit", "get permit")
	}
	return &p, nil
}

func (r *permitRepository) List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Permit, error) {
	query := `SELECT ` + permitColumns + ` FROM permits WHERE organization_id = $1 AND installation_id = $2 ORDER BY type ASC, created_at ASC`

	permits := []*model.Permit{}
	if err := r.db.SelectContext(ctx, &permits, query, orgID, installationID); err != nil {
		return nil, apperrors.NewPersistence("list permits", err)
	}
	return permits, nil
}

func (r *permitRepository) Mutate(ctx context.Context, orgID, id uuid.UUID, fn repository.PermitMutation) (*model.Permit, error) {
	lock := `SELECT ` + permitColumns + ` FROM permits WHERE organization_id = $1 AND id = $2 FOR UPDATE`
	update := `UPDATE permits SET status = $1, application_date = $2, approval_date = $3, updated_at = $4 WHERE organization_id = $5 AND id = $6`

	var p model.Permit
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &p, lock, orgID, id); err != nil {
			return notFoundOr(err, "permit", "load permit")
		}
		parent, err := lockParent(ctx, tx, orgID, p.InstallationID, "FOR SHARE")
		if err != nil {
			return err
		}

		transition, err := fn(&p, parent)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, update, p.Status, p.ApplicationDate, p.ApprovalDate, p.UpdatedAt, orgID, id); err != nil {
			return apperrors.NewPersistence("update permit", err)
		}
		return recordTransition(ctx, tx, transition)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
