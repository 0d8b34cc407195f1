package customer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
)

// Service looks up customer contacts. Customers are owned elsewhere and
// change rarely, so lookups are cached per tenant for ttl.
type Service struct {
	repo  repository.CustomerRepository
	cache *cache.Cache
}

func NewService(repo repository.CustomerRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cacheKey(orgID, customerID uuid.UUID) string {
	return orgID.String() + ":" + customerID.String()
}

func (s *Service) GetContact(ctx context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error) {
	key := cacheKey(orgID, customerID)
	if cached, found := s.cache.Get(key); found {
		contact := cached.(model.CustomerContact)
		return &contact, nil
	}

	contact, err := s.repo.GetContact(ctx, orgID, customerID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, *contact)
	return contact, nil
}
