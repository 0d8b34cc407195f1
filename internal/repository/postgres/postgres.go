package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
)

type installationRepository struct {
	BaseRepository
}

type milestoneRepository struct {
	BaseRepository
}

type permitRepository struct {
	BaseRepository
}

type customerRepository struct {
	BaseRepository
}

type transitionRepository struct {
	BaseRepository
}

func NewInstallationRepository(db *sqlx.DB) repository.InstallationRepository {
	return &installationRepository{NewBaseRepository(db)}
}

func NewMilestoneRepository(db *sqlx.DB) repository.MilestoneRepository {
	return &milestoneRepository{NewBaseRepository(db)}
}

func NewPermitRepository(db *sqlx.DB) repository.PermitRepository {
	return &permitRepository{NewBaseRepository(db)}
}

func NewCustomerRepository(db *sqlx.DB) repository.CustomerRepository {
	return &customerRepository{NewBaseRepository(db)}
}

func NewTransitionRepository(db *sqlx.DB) repository.TransitionRepository {
	return &transitionRepository{NewBaseRepository(db)}
}

// NewStore wires every repository to db.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Installations: NewInstallationRepository(db),
		Milestones:    NewMilestoneRepository(db),
		Permits:       NewPermitRepository(db),
		Customers:     NewCustomerRepository(db),
		Transitions:   NewTransitionRepository(db),
	}
}
