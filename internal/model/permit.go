package model

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

type PermitType string

const (
	PermitTypeBuilding               PermitType = "building"
	PermitTypeElectrical             PermitType = "electrical"
	PermitTypeUtilityInterconnection PermitType = "utility-interconnection"
)

func (t PermitType) Valid() bool {
	switch t {
	case PermitTypeBuilding, PermitTypeElectrical, PermitTypeUtilityInterconnection:
		return true
	}
	return false
}

type PermitStatus string

const (
	PermitStatusNotSubmitted PermitStatus = "not_submitted"
	PermitStatusSubmitted    PermitStatus = "submitted"
	PermitStatusApproved     PermitStatus = "approved"
	PermitStatusRejected     PermitStatus = "rejected"
)

var PermitStatuses = []PermitStatus{
	PermitStatusNotSubmitted,
	PermitStatusSubmitted,
	PermitStatusApproved,
	PermitStatusRejected,
}

var permitTransitions = map[PermitStatus][]PermitStatus{
	PermitStatusNotSubmitted: {PermitStatusSubmitted},
	PermitStatusSubmitted:    {PermitStatusApproved, PermitStatusRejected},
	PermitStatusRejected:     {PermitStatusSubmitted},
}

func (s PermitStatus) Valid() bool {
	switch s {
	case PermitStatusNotSubmitted, PermitStatusSubmitted, PermitStatusApproved, PermitStatusRejected:
		return true
	}
	return false
}

func (s PermitStatus) CanTransitionTo(to PermitStatus) bool {
	return allowed(permitTransitions, s, to)
}

type Permit struct {
	Base
	InstallationID   uuid.UUID    `json:"installation_id" db:"installation_id"`
	Type             PermitType   `json:"type" db:"type"`
	PermitNumber     string       `json:"permit_number,omitempty" db:"permit_number"`
	IssuingAuthority string       `json:"issuing_authority,omitempty" db:"issuing_authority"`
	ApplicationDate  *time.Time   `json:"application_date,omitempty" db:"application_date"`
	ApprovalDate     *time.Time   `json:"approval_date,omitempty" db:"approval_date"`
	ExpirationDate   *time.Time   `json:"expiration_date,omitempty" db:"expiration_date"`
	Notes            string       `json:"notes,omitempty" db:"notes"`
	Status           PermitStatus `json:"status" db:"status"`
}

// ApplyStatus validates and applies a status change. Submitting stamps the
// application date unless one was recorded already; approval stamps the
// approval date.
func (p *Permit) ApplyStatus(to PermitStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(to) {
		return apperrors.NewInvalidTransition(string(EntityPermit), string(p.Status), string(to))
	}
	p.Status = to
	switch to {
	case PermitStatusSubmitted:
		if p.ApplicationDate == nil {
			stamp := now
			p.ApplicationDate = &stamp
		}
	case PermitStatusApproved:
		stamp := now
		p.ApprovalDate = &stamp
	}
	p.UpdatedAt = now
	return nil
}

type CreatePermitRequest struct {
	Type             PermitType `json:"type" binding:"required"`
	PermitNumber     string     `json:"permit_number" binding:"max=100"`
	IssuingAuthority string     `json:"issuing_authority" binding:"max=200"`
	ApplicationDate  *time.Time `json:"application_date"`
	ExpirationDate   *time.Time `json:"expiration_date"`
	Notes            string     `json:"notes" binding:"max=2000"`
}
