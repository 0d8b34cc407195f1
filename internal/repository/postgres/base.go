package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction. Errors returned by fn
// pass through unchanged; failures to begin or commit are persistence errors.
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewPersistence("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewPersistence("commit transaction", err)
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to a NotFound error and anything else to a
// persistence failure.
func notFoundOr(err error, resource, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.NewPersistence(op, err)
}

const insertTransition = `INSERT INTO status_transitions (id, organization_id, installation_id, entity_type, entity_id, from_status, to_status, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func recordTransition(ctx context.Context, tx *sqlx.Tx, t *model.StatusTransition) error {
	if t == nil {
		return nil
	}
	_, err := tx.ExecContext(ctx, insertTransition,
		t.ID,
		t.OrganizationID,
		t.InstallationID,
		t.EntityType,
		t.EntityID,
		t.FromStatus,
		t.ToStatus,
		t.OccurredAt,
	)
	if err != nil {
		return apperrors.NewPersistence("record status transition", err)
	}
	return nil
}
