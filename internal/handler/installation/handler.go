package installation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/internal/middleware"
	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/installation"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/lifecycle"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/httputil"
)

type Handler struct {
	service   *installation.Service
	lifecycle *lifecycle.Controller
}

func NewHandler(service *installation.Service, lifecycle *lifecycle.Controller) *Handler {
	return &Handler{
		service:   service,
		lifecycle: lifecycle,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	installations := r.Group("/installations")
	{
		installations.POST("", h.CreateInstallation)
		installations.GET("", h.ListInstallations)
		installations.GET("/:id", h.GetInstallation)
		installations.PUT("/:id/status", h.UpdateStatus)
		installations.GET("/:id/progress", h.GetProgress)
		installations.GET("/:id/history", h.GetHistory)
		installations.POST("/:id/notifications", h.SendUpdate)
	}
}

func (h *Handler) CreateInstallation(c *gin.Context) {
	var req model.CreateInstallationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	inst, milestones, err := h.service.Create(c.Request.Context(), middleware.OrganizationID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"installation": inst,
		"milestones":   milestones,
	})
}

func (h *Handler) GetInstallation(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	inst, err := h.service.Get(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, inst)
}

func (h *Handler) ListInstallations(c *gin.Context) {
	filters := &model.InstallationFilters{
		Status: model.InstallationStatus(c.Query("status")),
	}

	if id := c.Query("customer_id"); id != "" {
		customerID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, httputil.Response{Status: "error", Message: "invalid customer ID"})
			return
		}
		filters.CustomerID = customerID
	}

	installations, err := h.service.List(c.Request.Context(), middleware.OrganizationID(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, installations)
}

// UpdateStatus answers 200 once the change is stored, whatever happened to
// the customer notification; the outcome is reported alongside.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	inst, result, err := h.lifecycle.TransitionInstallation(c.Request.Context(), middleware.OrganizationID(c), id, model.InstallationStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"installation": inst,
		"notification": result,
	})
}

func (h *Handler) GetProgress(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	progress, err := h.lifecycle.GetProgress(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"installation_id": id,
		"progress":        progress,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	history, err := h.lifecycle.History(c.Request.Context(), middleware.OrganizationID(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, history)
}

func (h *Handler) SendUpdate(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	var req model.ManualUpdateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
	}

	result, err := h.lifecycle.SendManualUpdate(c.Request.Context(), middleware.OrganizationID(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"notification": result})
}
