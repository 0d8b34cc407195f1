package installation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// recordingRepo counts create calls and can fail them.
type recordingRepo struct {
	repository.InstallationRepository
	creates    int
	milestones int
	err        error
}

func (r *recordingRepo) Create(ctx context.Context, inst *model.Installation, milestones ...*model.Milestone) error {
	r.creates++
	r.milestones = len(milestones)
	if r.err != nil {
		return r.err
	}
	return r.InstallationRepository.Create(ctx, inst, milestones...)
}

func setup(t *testing.T) (*Service, *recordingRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	store := memory.NewStore()
	orgID, customerID := uuid.New(), uuid.New()
	store.PutCustomer(model.CustomerContact{ID: customerID, OrganizationID: orgID, Email: "kim@example.com"})

	repos := store.Repositories()
	repo := &recordingRepo{InstallationRepository: repos.Installations}
	return NewService(repo, repos.Customers), repo, orgID, customerID
}

func request(customerID uuid.UUID) *model.CreateInstallationRequest {
	return &model.CreateInstallationRequest{
		CustomerID:    customerID,
		Address:       "7 Ridge Rd",
		ScheduledDate: time.Date(2026, 6, 1, 9, 0, 0, 0, time.FixedZone("EST", -5*3600)),
	}
}

func TestCreate(t *testing.T) {
	svc, repo, orgID, customerID := setup(t)

	inst, milestones, err := svc.Create(context.Background(), orgID, request(customerID))
	require.NoError(t, err)
	assert.Equal(t, model.InstallationStatusScheduled, inst.Status)
	assert.Equal(t, "INS-000001", inst.InstallationNumber)
	assert.Equal(t, time.UTC, inst.ScheduledDate.Location())
	assert.Nil(t, milestones)
	assert.Zero(t, repo.milestones)

	req := request(customerID)
	req.SeedMilestones = true
	inst, milestones, err = svc.Create(context.Background(), orgID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.creates)
	require.Len(t, milestones, len(model.DefaultMilestones))
	for i, m := range milestones {
		assert.Equal(t, i+1, m.Position)
		assert.Equal(t, inst.ID, m.InstallationID)
		assert.Equal(t, orgID, m.OrganizationID)
		assert.Equal(t, model.DefaultMilestones[i].Name, m.Name)
		assert.Equal(t, model.MilestoneStatusPending, m.Status)
	}

	stored, err := repo.InstallationRepository.Get(context.Background(), orgID, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "INS-000002", stored.InstallationNumber)
}

func TestCreateSeededFailureLeavesNothing(t *testing.T) {
	svc, repo, orgID, customerID := setup(t)
	repo.err = errors.New("connection reset")

	req := request(customerID)
	req.SeedMilestones = true
	inst, milestones, err := svc.Create(context.Background(), orgID, req)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrPersistence))
	assert.Nil(t, inst)
	assert.Nil(t, milestones)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, len(model.DefaultMilestones), repo.milestones)

	listed, err := svc.List(context.Background(), orgID, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateUnknownCustomer(t *testing.T) {
	svc, _, orgID, _ := setup(t)

	_, _, err := svc.Create(context.Background(), orgID, request(uuid.New()))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _, orgID, _ := setup(t)

	_, err := svc.List(context.Background(), orgID, &model.InstallationFilters{Status: "paused"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}

func TestSetStatus(t *testing.T) {
	svc, _, orgID, customerID := setup(t)
	ctx := context.Background()
	inst, _, err := svc.Create(ctx, orgID, request(customerID))
	require.NoError(t, err)

	updated, transition, err := svc.SetStatus(ctx, orgID, inst.ID, model.InstallationStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.InstallationStatusInProgress, updated.Status)
	assert.Equal(t, "scheduled", transition.FromStatus)
	assert.Equal(t, "in_progress", transition.ToStatus)

	_, _, err = svc.SetStatus(ctx, orgID, inst.ID, model.InstallationStatusScheduled)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidTransition))

	_, _, err = svc.SetStatus(ctx, orgID, inst.ID, "paused")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))
}
