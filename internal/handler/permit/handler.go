package permit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/solar-lifecycle-api/internal/middleware"
	"github.com/jwalitptl/solar-lifecycle-api/internal/model"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/lifecycle"
	"github.com/jwalitptl/solar-lifecycle-api/internal/service/permit"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/httputil"
)

type Handler struct {
	service   *permit.Service
	lifecycle *lifecycle.Controller
}

func NewHandler(service *permit.Service, lifecycle *lifecycle.Controller) *Handler {
	return &Handler{
		service:   service,
		lifecycle: lifecycle,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/installations/:id/permits", h.ListPermits)
	r.POST("/installations/:id/permits", h.CreatePermit)
	r.PUT("/permits/:id/status", h.UpdateStatus)
}

func (h *Handler) ListPermits(c *gin.Context) {
	installationID, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	permits, err := h.service.List(c.Request.Context(), middleware.OrganizationID(c), installationID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, permits)
}

func (h *Handler) CreatePermit(c *gin.Context) {
	installationID, ok := httputil.ParseIDParam(c, "id", "installation")
	if !ok {
		return
	}

	var req model.CreatePermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.OrganizationID(c), installationID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httputil.ParseIDParam(c, "id", "permit")
	if !ok {
		return
	}

	var req model.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.lifecycle.TransitionPermit(c.Request.Context(), middleware.OrganizationID(c), id, model.PermitStatus(req.Status))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"permit": p})
}
