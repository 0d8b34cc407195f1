package milestone

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/solar-lifecycle-api/internal/middleware"
	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/lifecycle"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/milestone"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/httputil"
)

type Handler struct {
	service   *milestone.Service
	lifecycle *lifecycle.Controller
}

func NewHandler(service *milestone.Service, lifecycle *lifecycle.Controller) *Handler {
	return &Handler{
		service:   service,
		lifecycle: lifecycle,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/installations/:id/milestones", h.ListMilestones)
	r.POST("/installations/:id/milestones", h.CreateMilestone)
	r.PUT("/milestones/:id/status", h.UpdateStatus)
}

func (h *Handler) ListMilestones(c *gin.Context) {
	installationID, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	milestones, err := h.service.List(c.Request.Context(), middleware.OrganizationID(c), installationID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, milestones)
}

func (h *Handler) CreateMilestone(c *gin.Context) {
	installationID, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	var req model.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	m, err := h.service.Create(c.Request.Context(), middleware.OrganizationID(c), installationID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, m)
}

// UpdateStatus reports a notification only when the milestone was completed.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "milestone")
	if !ok {
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	m, result, err := h.lifecycle.TransitionMilestone(c.Request.Context(), middleware.OrganizationID(c), id, model.MilestoneStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"milestone":    m,
		"notification": result,
	})
}
