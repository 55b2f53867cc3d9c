package tenant

import (
	"errors"
	"net/http"

	"edusuite/internal/auth"
	"edusuite/internal/common"
	"edusuite/internal/infra/queue"
	tenantSvc "edusuite/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrJobsDisabled is returned when no job queue is configured
var ErrJobsDisabled = errors.New("background jobs are disabled")

// TenantHandler serves the tenant administration API. Routes under it do not
// need a tenant header.
type TenantHandler struct {
	service tenantSvc.TenantService
	jobs    queue.Client
	logger  *zap.Logger
}

// NewTenantHandler creates the handler. jobs may be nil when Redis is not
// configured; the warm-up endpoint then answers 503.
func NewTenantHandler(service tenantSvc.TenantService, jobs queue.Client, logger *zap.Logger) *TenantHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantHandler{service: service, jobs: jobs, logger: logger}
}

// CreateTenant POST /api/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var body CreateTenantRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ResponseBadRequest(c, "invalid JSON body")
		return
	}

	t, err := h.service.CreateTenant(c.Request.Context(), tenantSvc.CreateTenantParams{
		Code:     body.Code,
		Name:     body.Name,
		Settings: body.Settings.toParams(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTenants GET /api/tenants
func (h *TenantHandler) ListTenants(c *gin.Context) {
	tenants, err := h.service.ListTenants(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tenants})
}

// GetTenant GET /api/tenants/:id
func (h *TenantHandler) GetTenant(c *gin.Context) {
	t, err := h.service.GetTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetTenantByCode GET /api/tenants/code/:code
func (h *TenantHandler) GetTenantByCode(c *gin.Context) {
	t, err := h.service.GetTenantByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTenant PUT /api/tenants/:id
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	var body UpdateTenantRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ResponseBadRequest(c, "invalid JSON body")
		return
	}

	t, err := h.service.UpdateTenant(c.Request.Context(), c.Param("id"), tenantSvc.UpdateTenantParams{
		Name:     body.Name,
		IsActive: body.IsActive,
		Settings: body.Settings.toParams(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTenant DELETE /api/tenants/:id
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	if err := h.service.DeleteTenant(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// WarmCache POST /api/tenants/cache/warmup enqueues a cache warm-up job
func (h *TenantHandler) WarmCache(c *gin.Context) {
	if h.jobs == nil {
		common.ResponseError(c, http.StatusServiceUnavailable, ErrJobsDisabled.Error())
		return
	}

	actor, _ := auth.ActorFromContext(c.Request.Context())
	if err := h.jobs.EnqueueCacheWarmup(actor); err != nil {
		h.logger.Error("enqueue cache warmup failed", zap.Error(err))
		common.ResponseServerError(c)
		return
	}
	c.JSON(http.StatusAccepted, WarmupResponse{Status: "queued"})
}

func (h *TenantHandler) writeError(c *gin.Context, err error) {
	switch tenantSvc.KindOf(err) {
	case tenantSvc.KindInvalid, tenantSvc.KindTenantCodeEmpty:
		common.ResponseBadRequest(c, err.Error())
	case tenantSvc.KindTenantNotFound:
		common.ResponseNotFound(c, err.Error())
	case tenantSvc.KindConflict:
		common.ResponseError(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error("tenant request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		common.ResponseServerError(c)
	}
}
