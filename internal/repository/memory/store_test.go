package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

func newInstallation(orgID uuid.UUID) *model.Installation {
	return &model.Installation{
		Base:       model.Base{OrganizationID: orgID},
		CustomerID: uuid.New(),
		Address:    "4 Panel Rd",
		Status:     model.InstallationStatusScheduled,
	}
}

func TestInstallationNumbersArePerTenant(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	orgA, orgB := uuid.New(), uuid.New()
	store.SetCounter(orgA, 122)

	a := newInstallation(orgA)
	require.NoError(t, repos.Installations.Create(ctx, a))
	b := newInstallation(orgB)
	require.NoError(t, repos.Installations.Create(ctx, b))

	assert.Equal(t, "INS-000123", a.InstallationNumber)
	assert.Equal(t, "INS-000001", b.InstallationNumber)
}

func TestTenantIsolation(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgA := uuid.New()

	inst := newInstallation(orgA)
	require.NoError(t, repos.Installations.Create(ctx, inst))

	_, err := repos.Installations.Get(ctx, uuid.New(), inst.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	list, err := repos.Installations.List(ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = repos.Installations.Mutate(ctx, uuid.New(), inst.ID, func(*model.Installation) (*model.StatusTransition, error) {
		t.Fatal("mutation must not run for another tenant")
		return nil, nil
	})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestMutateFailureLeavesRecordUnchanged(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgID := uuid.New()

	inst := newInstallation(orgID)
	require.NoError(t, repos.Installations.Create(ctx, inst))

	_, err := repos.Installations.Mutate(ctx, orgID, inst.ID, func(i *model.Installation) (*model.StatusTransition, error) {
		i.Notes = "scribbled"
		return nil, apperrors.NewBadRequest("nope", nil)
	})
	require.Error(t, err)

	got, err := repos.Installations.Get(ctx, orgID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	history, err := repos.Transitions.ListForInstallation(ctx, orgID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMilestonePositionsAndParent(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgID := uuid.New()

	inst := newInstallation(orgID)
	require.NoError(t, repos.Installations.Create(ctx, inst))

	for _, d := range model.DefaultMilestones[:3] {
		m := &model.Milestone{
			Base:           model.Base{OrganizationID: orgID},
			InstallationID: inst.ID,
			Type:           d.Type,
			Name:           d.Name,
			Status:         model.MilestoneStatusPending,
		}
		require.NoError(t, repos.Milestones.Create(ctx, m))
	}

	list, err := repos.Milestones.List(ctx, orgID, inst.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		assert.Equal(t, i+1, m.Position)
	}

	orphan := &model.Milestone{Base: model.Base{OrganizationID: orgID}, InstallationID: uuid.New()}
	err = repos.Milestones.Create(ctx, orphan)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	var parentStatus model.InstallationStatus
	_, err = repos.Milestones.Mutate(ctx, orgID, list[0].ID, func(m *model.Milestone, parent *model.Installation) (*model.StatusTransition, error) {
		parentStatus = parent.Status
		return nil, m.ApplyStatus(model.MilestoneStatusInProgress, time.Now())
	})
	require.NoError(t, err)
	assert.Equal(t, model.InstallationStatusScheduled, parentStatus)
}

func TestCreateWithMilestonesIsAtomic(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgID := uuid.New()

	bad := newInstallation(orgID)
	milestones := model.NewDefaultMilestones(orgID, uuid.Nil)
	milestones[5].Type = "roof-party"
	err := repos.Installations.Create(ctx, bad, milestones...)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBadRequest))

	list, err := repos.Installations.List(ctx, orgID, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	good := newInstallation(orgID)
	require.NoError(t, repos.Installations.Create(ctx, good, model.NewDefaultMilestones(orgID, uuid.Nil)...))
	assert.Equal(t, "INS-000001", good.InstallationNumber)

	stored, err := repos.Milestones.List(ctx, orgID, good.ID)
	require.NoError(t, err)
	require.Len(t, stored, len(model.DefaultMilestones))
	for i, m := range stored {
		assert.Equal(t, i+1, m.Position)
		assert.Equal(t, good.ID, m.InstallationID)
		assert.Equal(t, model.DefaultMilestones[i].Type, m.Type)
	}
}

func TestCancelledInstallationTakesNoChildren(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgID := uuid.New()

	inst := newInstallation(orgID)
	require.NoError(t, repos.Installations.Create(ctx, inst))
	_, err := repos.Installations.Mutate(ctx, orgID, inst.ID, func(i *model.Installation) (*model.StatusTransition, error) {
		return nil, i.ApplyStatus(model.InstallationStatusCancelled, time.Now())
	})
	require.NoError(t, err)

	m := &model.Milestone{
		Base:           model.Base{OrganizationID: orgID},
		InstallationID: inst.ID,
		Type:           model.MilestoneTypeSiteSurvey,
		Name:           "Site Survey",
		Status:         model.MilestoneStatusPending,
	}
	err = repos.Milestones.Create(ctx, m)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	p := &model.Permit{
		Base:           model.Base{OrganizationID: orgID},
		InstallationID: inst.ID,
		Type:           model.PermitTypeBuilding,
		Status:         model.PermitStatusNotSubmitted,
	}
	err = repos.Permits.Create(ctx, p)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))

	milestones, err := repos.Milestones.List(ctx, orgID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, milestones)
	permits, err := repos.Permits.List(ctx, orgID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, permits)
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	repos := NewStore().Repositories()
	ctx := context.Background()
	orgID := uuid.New()

	inst := newInstallation(orgID)
	require.NoError(t, repos.Installations.Create(ctx, inst))

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Installations.Mutate(ctx, orgID, inst.ID, func(i *model.Installation) (*model.StatusTransition, error) {
				from := i.Status
				if err := i.ApplyStatus(model.InstallationStatusInProgress, time.Now()); err != nil {
					return nil, err
				}
				return model.NewTransition(orgID, i.ID, model.EntityInstallation, i.ID, string(from), string(i.Status), time.Now()), nil
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	history, err := repos.Transitions.ListForInstallation(ctx, orgID, inst.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCustomerContacts(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	orgID, customerID := uuid.New(), uuid.New()
	store.PutCustomer(model.CustomerContact{ID: customerID, OrganizationID: orgID, Email: "kim@example.com"})

	c, err := repos.Customers.GetContact(context.Background(), orgID, customerID)
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", c.Email)

	_, err = repos.Customers.GetContact(context.Background(), uuid.New(), customerID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}
