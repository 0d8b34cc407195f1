// Package lifecycle is the single entry point for status changes on
// installations, milestones and permits. It applies transitions through the
// trackers, decides which ones the customer hears about and reports the
// notification outcome separately from the change itself.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/repository"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/installation"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/milestone"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/notification"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/permit"
	apperrors "github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/metrics"
)

type ContactDirectory interface {
	GetContact(ctx context.Context, orgID, customerID uuid.UUID) (*model.CustomerContact, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, t *model.StatusTransition) error
}

type Options struct {
	Installations *installation.Service
	Milestones    *milestone.Service
	Permits       *permit.Service
	Transitions   repository.TransitionRepository
	Contacts      ContactDirectory
	Notifier      notification.Service
	Events        EventEmitter
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

type Controller struct {
	installations *installation.Service
	milestones    *milestone.Service
	permits       *permit.Service
	transitions   repository.TransitionRepository
	contacts      ContactDirectory
	notifier      notification.Service
	events        EventEmitter
	metrics       *metrics.Metrics
	logger        *logger.Logger
}

func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		installations: opts.Installations,
		milestones:    opts.Milestones,
		permits:       opts.Permits,
		transitions:   opts.Transitions,
		contacts:      opts.Contacts,
		notifier:      opts.Notifier,
		events:        opts.Events,
		metrics:       opts.Metrics,
		logger:        log,
	}
}

// TransitionInstallation changes the installation status. Every installation
// change is customer visible, so a dispatch result is always returned on
// success.
func (c *Controller) TransitionInstallation(ctx context.Context, orgID, id uuid.UUID, to model.InstallationStatus) (*model.Installation, *model.DispatchResult, error) {
	inst, transition, err := c.installations.SetStatus(ctx, orgID, id, to)
	if err != nil {
		c.rejected(model.EntityInstallation, id, err)
		return nil, nil, err
	}
	c.applied(ctx, transition)

	return inst, c.notify(ctx, inst, "", ""), nil
}

// TransitionMilestone changes a milestone status. Only completion is
// customer visible; other changes return a nil dispatch result.
func (c *Controller) TransitionMilestone(ctx context.Context, orgID, id uuid.UUID, to model.MilestoneStatus) (*model.Milestone, *model.DispatchResult, error) {
	change, err := c.milestones.SetStatus(ctx, orgID, id, to)
	if err != nil {
		c.rejected(model.EntityMilestone, id, err)
		return nil, nil, err
	}
	c.applied(ctx, change.Transition)

	m := change.Milestone
	if m.Status != model.MilestoneStatusCompleted {
		return m, nil, nil
	}
	return m, c.notify(ctx, change.Installation, m.Name, c.nextStep(ctx, orgID, m.InstallationID, m.Position)), nil
}

// TransitionPermit changes a permit status. Permits are back-office only
// and never notify the customer.
func (c *Controller) TransitionPermit(ctx context.Context, orgID, id uuid.UUID, to model.PermitStatus) (*model.Permit, error) {
	change, err := c.permits.SetStatus(ctx, orgID, id, to)
	if err != nil {
		c.rejected(model.EntityPermit, id, err)
		return nil, err
	}
	c.applied(ctx, change.Transition)
	return change.Permit, nil
}

// SendManualUpdate notifies the customer outside any transition. The status
// override only changes the message content, never the record.
func (c *Controller) SendManualUpdate(ctx context.Context, orgID, installationID uuid.UUID, req *model.ManualUpdateRequest) (*model.DispatchResult, error) {
	inst, err := c.installations.Get(ctx, orgID, installationID)
	if err != nil {
		return nil, err
	}

	if req != nil && req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperrors.NewBadRequest("unknown installation status "+string(*req.Status), nil)
		}
		override := *inst
		override.Status = *req.Status
		inst = &override
	}

	var milestoneName, next string
	if req != nil && req.MilestoneName != "" {
		milestoneName = req.MilestoneName
		next = c.nextStepAfterNamed(ctx, orgID, installationID, milestoneName)
	}

	return c.notify(ctx, inst, milestoneName, next), nil
}

func (c *Controller) GetProgress(ctx context.Context, orgID, installationID uuid.UUID) (int, error) {
	return c.milestones.Progress(ctx, orgID, installationID)
}

// History lists every transition recorded for an installation and its
// milestones and permits, oldest first.
func (c *Controller) History(ctx context.Context, orgID, installationID uuid.UUID) ([]*model.StatusTransition, error) {
	if _, err := c.installations.Get(ctx, orgID, installationID); err != nil {
		return nil, err
	}
	return c.transitions.ListForInstallation(ctx, orgID, installationID)
}

func (c *Controller) notify(ctx context.Context, inst *model.Installation, milestoneName, nextStep string) *model.DispatchResult {
	log := c.logger.WithFields(map[string]interface{}{
		"installation_id":     inst.ID.String(),
		"installation_number": inst.InstallationNumber,
	})

	contact, err := c.contacts.GetContact(ctx, inst.OrganizationID, inst.CustomerID)
	if err != nil {
		c.count(func(m *metrics.Metrics) { m.NotificationsFailed.Inc() })
		log.Error(err, "failed to look up customer contact")
		return model.DispatchFailed(apperrors.NewDispatch(err))
	}

	event := model.NewNotificationEvent(inst, contact)
	event.MilestoneName = milestoneName
	event.NextStep = nextStep

	start := time.Now()
	messageID, err := c.notifier.Send(ctx, event)
	c.count(func(m *metrics.Metrics) { m.NotificationLatency.Observe(time.Since(start).Seconds()) })

	switch {
	case errors.Is(err, notification.ErrDisabled):
		c.count(func(m *metrics.Metrics) { m.NotificationsSkipped.WithLabelValues("disabled").Inc() })
		return model.DispatchFailed(err)
	case err != nil:
		c.count(func(m *metrics.Metrics) { m.NotificationsFailed.Inc() })
		log.Error(err, "customer notification failed", "status", string(inst.Status))
		return model.DispatchFailed(apperrors.NewDispatch(err))
	}

	c.count(func(m *metrics.Metrics) { m.NotificationsSent.Inc() })
	log.Info("customer notified", "status", string(inst.Status), "message_id", messageID)
	return model.DispatchSucceeded(messageID)
}

// nextStep names the first milestone after position that is still open.
func (c *Controller) nextStep(ctx context.Context, orgID, installationID uuid.UUID, position int) string {
	milestones, err := c.milestones.List(ctx, orgID, installationID)
	if err != nil {
		c.logger.Error(err, "failed to list milestones for next step", "installation_id", installationID.String())
		return ""
	}
	if next := model.NextOpen(milestones, position); next != nil {
		return next.Name
	}
	return ""
}

func (c *Controller) nextStepAfterNamed(ctx context.Context, orgID, installationID uuid.UUID, name string) string {
	milestones, err := c.milestones.List(ctx, orgID, installationID)
	if err != nil {
		c.logger.Error(err, "failed to list milestones for next step", "installation_id", installationID.String())
		return ""
	}
	for _, m := range milestones {
		if m.Name == name {
			if next := model.NextOpen(milestones, m.Position); next != nil {
				return next.Name
			}
			return ""
		}
	}
	return ""
}

func (c *Controller) applied(ctx context.Context, t *model.StatusTransition) {
	c.count(func(m *metrics.Metrics) { m.Transitions.WithLabelValues(string(t.EntityType), t.ToStatus).Inc() })
	c.logger.Info("status changed",
		"entity", string(t.EntityType),
		"entity_id", t.EntityID.String(),
		"installation_id", t.InstallationID.String(),
		"from", t.FromStatus,
		"to", t.ToStatus,
	)

	if c.events == nil {
		return
	}
	if err := c.events.Emit(ctx, t); err != nil {
		c.logger.Error(err, "failed to publish lifecycle event", "entity_id", t.EntityID.String())
	}
}

func (c *Controller) rejected(entity model.EntityType, id uuid.UUID, err error) {
	if te, ok := apperrors.AsTransition(err); ok {
		c.count(func(m *metrics.Metrics) { m.RejectedTransitions.WithLabelValues(string(entity)).Inc() })
		c.logger.Info("status change rejected", "entity", string(entity), "entity_id", id.String(), "from", te.From, "to", te.To)
		return
	}
	if apperrors.HasCode(err, apperrors.ErrPersistence) {
		c.logger.Error(err, "status change failed", "entity", string(entity), "entity_id", id.String())
	}
}

func (c *Controller) count(fn func(*metrics.Metrics)) {
	if c.metrics != nil {
		fn(c.metrics)
	}
}
