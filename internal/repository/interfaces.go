package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
)

// Mutation functions run while the record is locked. Returning an error
// aborts the change and nothing is written.
type (
	InstallationMutation func(*model.Installation) (*model.StatusTransition, error)
	MilestoneMutation    func(*model.Milestone, *model.Installation) (*model.StatusTransition, error)
	PermitMutation       func(*model.Permit, *model.Installation) (*model.StatusTransition, error)
)

// All repository interfaces in one file. Every method is scoped to one
// organization; records of other tenants are reported as not found.
type (
	InstallationRepository interface {
		// Create stores the installation and its initial milestones in one
		// transaction. Milestones are positioned in argument order.
		Create(ctx context.Context, installation *model.Installation, milestones ...*model.Milestone) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Installation, error)
		List(ctx context.Context, orgID uuid.UUID, filters *model.InstallationFilters) ([]*model.Installation, error)
		Mutate(ctx context.Context, orgID, id uuid.UUID, fn InstallationMutation) (*model.Installation, error)
	}

	MilestoneRepository interface {
		Create(ctx context.Context, milestone *model.Milestone) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Milestone, error)
		List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Milestone, error)
		Mutate(ctx context.Context, orgID, id uuid.UUID, fn MilestoneMutation) (*model.Milestone, error)
	}

	PermitRepository interface {
		Create(ctx context.Context, permit *model.Permit) error
		Get(ctx context.Context, orgID, id uuid.UUID) (*model.Permit, error)
		List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Permit, error)
		Mutate(ctx context.Context, orgID, id uuid.UUID, fn PermitMutation) (*model.Permit, error)
	}

	CustomerRepository interface {
		GetContact(ctx context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error)
	}

	TransitionRepository interface {
		ListForInstallation(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.StatusTransition, error)
	}
)

// Store bundles the repositories backed by one storage engine.
type Store struct {
	Installations InstallationRepository
	Milestones    MilestoneRepository
	Permits       PermitRepository
	Customers     CustomerRepository
	Transitions   TransitionRepository
}
