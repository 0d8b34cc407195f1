package customer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) GetContact(ctx context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error) {
	args := m.Called(ctx, orgID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CustomerContact), args.Error(1)
}

func TestGetContact_CachesPerTenant(t *testing.T) {
	repo := new(mockCustomerRepo)
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	orgID, customerID := uuid.New(), uuid.New()

	contact := &model.CustomerContact{ID: customerID, OrganizationID: orgID, Email: "lee@example.com"}
	repo.On("GetContact", ctx, orgID, customerID).Return(contact, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := svc.GetContact(ctx, orgID, customerID)
		require.NoError(t, err)
		assert.Equal(t, "lee@example.com", got.Email)
	}
	repo.AssertNumberOfCalls(t, "GetContact", 1)

	otherOrg := uuid.New()
	repo.On("GetContact", ctx, otherOrg, customerID).Return(nil, apperrors.NewNotFound("customer", nil)).Once()
	_, err := svc.GetContact(ctx, otherOrg, customerID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	repo.AssertNumberOfCalls(t, "GetContact", 2)
}

func TestGetContact_DoesNotCacheErrors(t *testing.T) {
	repo := new(mockCustomerRepo)
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	orgID, customerID := uuid.New(), uuid.New()

	repo.On("GetContact", ctx, orgID, customerID).Return(nil, apperrors.NewNotFound("customer", nil)).Twice()

	for i := 0; i < 2; i++ {
		_, err := svc.GetContact(ctx, orgID, customerID)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
	}
	repo.AssertExpectations(t)
}

func TestGetContact_ReturnsCopies(t *testing.T) {
	repo := new(mockCustomerRepo)
	svc := NewService(repo, time.Minute)
	ctx := context.Background()
	orgID, customerID := uuid.New(), uuid.New()
	repo.On("GetContact", ctx, orgID, customerID).
		Return(&model.CustomerContact{ID: customerID, OrganizationID: orgID, Email: "lee@example.com"}, nil).Once()

	first, err := svc.GetContact(ctx, orgID, customerID)
	require.NoError(t, err)
	first.Email = "changed@example.com"

	second, err := svc.GetContact(ctx, orgID, customerID)
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", second.Email)
}
