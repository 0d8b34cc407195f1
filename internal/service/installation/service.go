package installation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type Service struct {
	repo      repository.InstallationRepository
	customers repository.CustomerRepository
	now       func() time.Time
}

func NewService(repo repository.InstallationRepository, customers repository.CustomerRepository) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a scheduled installation for an existing customer.
// The installation number is assigned by the store. Seeded milestones are
// written with the installation or not at all.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req *model.CreateInstallationRequest) (*model.Installation, []*model.Milestone, error) {
	if _, err := s.customers.GetContact(ctx, orgID, req.CustomerID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NewBadRequest("customer does not exist", err)
		}
		return nil, nil, err
	}

	scheduled := req.ScheduledDate.UTC()
	inst := &model.Installation{
		Base:          model.Base{ID: uuid.New(), OrganizationID: orgID},
		CustomerID:    req.CustomerID,
		Address:       req.Address,
		ScheduledDate: &scheduled,
		SystemSizeKW:  req.SystemSizeKW,
		TotalValue:    req.TotalValue,
		Notes:         req.Notes,
		Status:        model.InstallationStatusScheduled,
	}
	var milestones []*model.Milestone
	if req.SeedMilestones {
		milestones = model.NewDefaultMilestones(orgID, inst.ID)
	}
	if err := s.repo.Create(ctx, inst, milestones...); err != nil {
		return nil, nil, apperrors.Passthrough(err, func(err error) *apperrors.AppError {
			return apperrors.NewPersistence("create installation", err)
		})
	}
	return inst, milestones, nil
}

func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Installation, error) {
	return s.repo.Get(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, filters *model.InstallationFilters) ([]*model.Installation, error) {
	if filters != nil && filters.Status != "" && !filters.Status.Valid() {
		return nil, apperrors.NewBadRequest("unknown installation status "+string(filters.Status), nil)
	}
	return s.repo.List(ctx, orgID, filters)
}

// SetStatus applies a status change under the record lock and returns the
// updated installation with the transition that was recorded.
func (s *Service) SetStatus(ctx context.Context, orgID, id uuid.UUID, to model.InstallationStatus) (*model.Installation, *model.StatusTransition, error) {
	if !to.Valid() {
		return nil, nil, apperrors.NewBadRequest("unknown installation status "+string(to), nil)
	}

	var transition *model.StatusTransition
	inst, err := s.repo.Mutate(ctx, orgID, id, func(inst *model.Installation) (*model.StatusTransition, error) {
		from := inst.Status
		now := s.now()
		if err := inst.ApplyStatus(to, now); err != nil {
			return nil, err
		}
		transition = model.NewTransition(orgID, inst.ID, model.EntityInstallation, inst.ID, string(from), string(to), now)
		return transition, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return inst, transition, nil
}
