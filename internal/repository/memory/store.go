// Package memory provides an in-memory implementation of the repository
// interfaces used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// Store keeps every record in maps guarded by a single lock. Mutations hold
// the write lock for their whole read-check-write cycle, which gives the same
// per-record serialization the SQL store gets from row locks.
type Store struct {
	mu            sync.RWMutex
	installations map[uuid.UUID]model.Installation
	milestones    map[uuid.UUID]model.Milestone
	permits       map[uuid.UUID]model.Permit
	customers     map[uuid.UUID]model.CustomerContact
	transitions   []model.StatusTransition
	counters      map[uuid.UUID]int64
}

func NewStore() *Store {
	return &Store{
		installations: make(map[uuid.UUID]model.Installation),
		milestones:    make(map[uuid.UUID]model.Milestone),
		permits:       make(map[uuid.UUID]model.Permit),
		customers:     make(map[uuid.UUID]model.CustomerContact),
		counters:      make(map[uuid.UUID]int64),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{
		Installations: installations{s},
		Milestones:    milestones{s},
		Permits:       permits{s},
		Customers:     customers{s},
		Transitions:   transitions{s},
	}
}

// PutCustomer registers a contact. Customers are owned by another system;
// this exists for seeding.
func (s *Store) PutCustomer(contact model.CustomerContact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[contact.ID] = contact
}

// SetCounter primes the installation sequence of a tenant.
func (s *Store) SetCounter(orgID uuid.UUID, last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[orgID] = last
}

func (s *Store) record(t *model.StatusTransition) {
	if t != nil {
		s.transitions = append(s.transitions, *t)
	}
}

func (s *Store) installation(orgID, id uuid.UUID) (model.Installation, error) {
	inst, ok := s.installations[id]
	if !ok || inst.OrganizationID != orgID {
		return model.Installation{}, apperrors.NewNotFound("installation", nil)
	}
	return inst, nil
}

type installations struct{ s *Store }

// Create checks every milestone before writing, so a rejected batch leaves
// neither the installation nor a consumed number behind.
func (r installations) Create(_ context.Context, inst *model.Installation, ms ...*model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range ms {
		if !m.Type.Valid() || !m.Status.Valid() {
			return apperrors.NewBadRequest(fmt.Sprintf("invalid milestone %q", m.Name), nil)
		}
	}

	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	r.s.counters[inst.OrganizationID]++
	inst.InstallationNumber = model.FormatInstallationNumber(r.s.counters[inst.OrganizationID])
	r.s.installations[inst.ID] = *inst

	for i, m := range ms {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		m.OrganizationID = inst.OrganizationID
		m.InstallationID = inst.ID
		m.Position = i + 1
		m.CreatedAt = now
		m.UpdatedAt = now
		r.s.milestones[m.ID] = *m
	}
	return nil
}

func (r installations) Get(_ context.Context, orgID, id uuid.UUID) (*model.Installation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inst, err := r.s.installation(orgID, id)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r installations) List(_ context.Context, orgID uuid.UUID, filters *model.InstallationFilters) ([]*model.Installation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Installation{}
	for _, inst := range r.s.installations {
		if inst.OrganizationID != orgID {
			continue
		}
		if filters != nil {
			if filters.Status != "" && inst.Status != filters.Status {
				continue
			}
			if filters.CustomerID != uuid.Nil && inst.CustomerID != filters.CustomerID {
				continue
			}
		}
		inst := inst
		out = append(out, &inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallationNumber < out[j].InstallationNumber })
	return out, nil
}

func (r installations) Mutate(_ context.Context, orgID, id uuid.UUID, fn repository.InstallationMutation) (*model.Installation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inst, err := r.s.installation(orgID, id)
	if err != nil {
		return nil, err
	}
	transition, err := fn(&inst)
	if err != nil {
		return nil, err
	}
	r.s.installations[id] = inst
	r.s.record(transition)
	return &inst, nil
}

type milestones struct{ s *Store }

func (r milestones) Create(_ context.Context, m *model.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	parent, err := r.s.installation(m.OrganizationID, m.InstallationID)
	if err != nil {
		return err
	}
	if err := parent.AcceptChild(model.EntityMilestone); err != nil {
		return err
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	m.Position = 1
	for _, other := range r.s.milestones {
		if other.InstallationID == m.InstallationID && other.Position >= m.Position {
			m.Position = other.Position + 1
		}
	}
	r.s.milestones[m.ID] = *m
	return nil
}

func (r milestones) Get(_ context.Context, orgID, id uuid.UUID) (*model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.milestones[id]
	if !ok || m.OrganizationID != orgID {
		return nil, apperrors.NewNotFound("milestone", nil)
	}
	return &m, nil
}

func (r milestones) List(_ context.Context, orgID, installationID uuid.UUID) ([]*model.Milestone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Milestone{}
	for _, m := range r.s.milestones {
		if m.OrganizationID == orgID && m.InstallationID == installationID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r milestones) Mutate(_ context.Context, orgID, id uuid.UUID, fn repository.MilestoneMutation) (*model.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.milestones[id]
	if !ok || m.OrganizationID != orgID {
		return nil, apperrors.NewNotFound("milestone", nil)
	}
	parent, err := r.s.installation(orgID, m.InstallationID)
	if err != nil {
		return nil, err
	}
	transition, err := fn(&m, &parent)
	if err != nil {
		return nil, err
	}
	r.s.milestones[id] = m
	r.s.record(transition)
	return &m, nil
}

type permits struct{ s *Store }

func (r permits) Create(_ context.Context, p *model.Permit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	parent, err := r.s.installation(p.OrganizationID, p.InstallationID)
	if err != nil {
		return err
	}
	if err := parent.AcceptChild(model.EntityPermit); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.permits[p.ID] = *p
	return nil
}

func (r permits) Get(_ context.Context, orgID, id uuid.UUID) (*model.Permit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.permits[id]
	if !ok || p.OrganizationID != orgID {
		return nil, apperrors.NewNotFound("permit", nil)
	}
	return &p, nil
}

func (r permits) List(_ context.Context, orgID, installationID uuid.UUID) ([]*model.Permit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.Permit{}
	for _, p := range r.s.permits {
		if p.OrganizationID == orgID && p.InstallationID == installationID {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r permits) Mutate(_ context.Context, orgID, id uuid.UUID, fn repository.PermitMutation) (*model.Permit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.permits[id]
	if !ok || p.OrganizationID != orgID {
		return nil, apperrors.NewNotFound("permit", nil)
	}
	parent, err := r.s.installation(orgID, p.InstallationID)
	if err != nil {
		return nil, err
	}
	transition, err := fn(&p, &parent)
	if err != nil {
		return nil, err
	}
	r.s.permits[id] = p
	r.s.record(transition)
	return &p, nil
}

type customers struct{ s *Store }

func (r customers) GetContact(_ context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[customerID]
	if !ok || c.OrganizationID != orgID {
		return nil, apperrors.NewNotFound("customer", nil)
	}
	return &c, nil
}

type transitions struct{ s *Store }

func (r transitions) ListForInstallation(_ context.Context, orgID, installationID uuid.UUID) ([]*model.StatusTransition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*model.StatusTransition{}
	for _, t := range r.s.transitions {
		if t.OrganizationID == orgID && t.InstallationID == installationID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}
