package milestone

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// StatusChange is the outcome of a milestone transition together with the
// parent installation as it was when the change was applied.
type StatusChange struct {
	Milestone    *model.Milestone
	Installation *model.Installation
	Transition   *model.StatusTransition
}

type Service struct {
	repo          repository.MilestoneRepository
	installations repository.InstallationRepository
	now           func() time.Time
}

func NewService(repo repository.MilestoneRepository, installations repository.InstallationRepository) *Service {
	return &Service{
		repo:          repo,
		installations: installations,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns the milestones of an installation in creation order.
func (s *Service) List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Milestone, error) {
	if _, err := s.installations.Get(ctx, orgID, installationID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, orgID, installationID)
}

// Create appends a pending milestone after the existing ones.
func (s *Service) Create(ctx context.Context, orgID, installationID uuid.UUID, req *model.CreateMilestoneRequest) (*model.Milestone, error) {
	if !req.Type.Valid() {
		return nil, apperrors.NewBadRequest("unknown milestone type "+string(req.Type), nil)
	}

	m := &model.Milestone{
		Base:           model.Base{ID: uuid.New(), OrganizationID: orgID},
		InstallationID: installationID,
		Type:           req.Type,
		Name:           req.Name,
		ScheduledDate:  req.ScheduledDate,
		Assignee:       req.Assignee,
		Notes:          req.Notes,
		Status:         model.MilestoneStatusPending,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetStatus applies a transition. Milestones of a cancelled installation
// are frozen.
func (s *Service) SetStatus(ctx context.Context, orgID, id uuid.UUID, to model.MilestoneStatus) (*StatusChange, error) {
	if !to.Valid() {
		return nil, apperrors.NewBadRequest("unknown milestone status "+string(to), nil)
	}

	change := &StatusChange{}
	m, err := s.repo.Mutate(ctx, orgID, id, func(m *model.Milestone, parent *model.Installation) (*model.StatusTransition, error) {
		if parent.Status == model.InstallationStatusCancelled {
			return nil, apperrors.NewBlockedTransition(string(model.EntityMilestone), string(m.Status), string(to), "installation is cancelled")
		}
		from := m.Status
		now := s.now()
		if err := m.ApplyStatus(to, now); err != nil {
			return nil, err
		}
		change.Installation = parent
		change.Transition = model.NewTransition(orgID, parent.ID, model.EntityMilestone, m.ID, string(from), string(to), now)
		return change.Transition, nil
	})
	if err != nil {
		return nil, err
	}
	change.Milestone = m
	return change, nil
}

// Progress returns the rounded percentage of completed milestones.
func (s *Service) Progress(ctx context.Context, orgID, installationID uuid.UUID) (int, error) {
	milestones, err := s.List(ctx, orgID, installationID)
	if err != nil {
		return 0, err
	}
	return model.Progress(milestones), nil
}
