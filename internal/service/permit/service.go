package permit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type StatusChange struct {
	Permit       *model.Permit
	Installation *model.Installation
	Transition   *model.StatusTransition
}

type Service struct {
	repo          repository.PermitRepository
	installations repository.InstallationRepository
	now           func() time.Time
}

func NewService(repo repository.PermitRepository, installations repository.InstallationRepository) *Service {
	return &Service{
		repo:          repo,
		installations: installations,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.Permit, error) {
	if _, err := s.installations.Get(ctx, orgID, installationID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, orgID, installationID)
}

// Create records a permit that has not been submitted yet.
func (s *Service) Create(ctx context.Context, orgID, installationID uuid.UUID, req *model.CreatePermitRequest) (*model.Permit, error) {
	if !req.Type.Valid() {
		return nil, apperrors.NewBadRequest("unknown permit type "+string(req.Type), nil)
	}

	p := &model.Permit{
		Base:             model.Base{ID: uuid.New(), OrganizationID: orgID},
		InstallationID:   installationID,
		Type:             req.Type,
		PermitNumber:     req.PermitNumber,
		IssuingAuthority: req.IssuingAuthority,
		ApplicationDate:  req.ApplicationDate,
		ExpirationDate:   req.ExpirationDate,
		Notes:            req.Notes,
		Status:           model.PermitStatusNotSubmitted,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) SetStatus(ctx context.Context, orgID, id uuid.UUID, to model.PermitStatus) (*StatusChange, error) {
	if !to.Valid() {
		return nil, apperrors.NewBadRequest("unknown permit status "+string(to), nil)
	}

	change := &StatusChange{}
	p, err := s.repo.Mutate(ctx, orgID, id, func(p *model.Permit, parent *model.Installation) (*model.StatusTransition, error) {
		if parent.Status == model.InstallationStatusCancelled {
			return nil, apperrors.NewBlockedTransition(string(model.EntityPermit), string(p.Status), string(to), "installation is cancelled")
		}
		from := p.Status
		now := s.now()
		if err := p.ApplyStatus(to, now); err != nil {
			return nil, err
		}
		change.Installation = parent
		change.Transition = model.NewTransition(orgID, parent.ID, model.EntityPermit, p.ID, string(from), string(to), now)
		return change.Transition, nil
	})
	if err != nil {
		return nil, err
	}
	change.Permit = p
	return change, nil
}
