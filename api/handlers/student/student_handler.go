package student

import (
	"errors"
	"net/http"

	"edusuite/internal/common"
	"edusuite/internal/logger"
	studentSvc "edusuite/internal/student"
	"edusuite/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StudentHandler serves /api/students. It must be mounted behind the tenant
// resolution middleware.
type StudentHandler struct {
	service studentSvc.Service
	logger  *zap.Logger
}

func NewStudentHandler(service studentSvc.Service, log *zap.Logger) *StudentHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentHandler{service: service, logger: log}
}

// Create POST /api/students
func (h *StudentHandler) Create(c *gin.Context) {
	params, ok := h.bind(c)
	if !ok {
		return
	}
	st, err := h.service.Create(c.Request.Context(), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// List GET /api/students
func (h *StudentHandler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.ResponseBadRequest(c, "invalid query parameters")
		return
	}

	page := q.pagination()
	items, total, err := h.service.List(c.Request.Context(), page, studentSvc.ListFilter{
		CurrentClass: q.Class,
		Section:      q.Section,
		Search:       q.Search,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.ResponseList(c, items, total, page)
}

// Get GET /api/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	st, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Update PUT /api/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	params, ok := h.bind(c)
	if !ok {
		return
	}
	st, err := h.service.Update(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Delete DELETE /api/students/:id, 204 even when nothing was visible
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StudentHandler) bind(c *gin.Context) (studentSvc.Params, bool) {
	var body StudentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.ResponseBadRequest(c, "invalid JSON body")
		return studentSvc.Params{}, false
	}
	params, err := body.toParams()
	if err != nil {
		common.ResponseBadRequest(c, "dates must use YYYY-MM-DD")
		return studentSvc.Params{}, false
	}
	return params, true
}

func (h *StudentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, studentSvc.ErrNotFound):
		common.ResponseNotFound(c, "Student not found")
	case errors.Is(err, studentSvc.ErrInvalidParams):
		common.ResponseBadRequest(c, err.Error())
	case errors.Is(err, studentSvc.ErrLimitReached):
		common.ResponseError(c, http.StatusConflict, err.Error())
	case errors.Is(err, tenant.ErrUninitializedContext):
		common.ResponseError(c, http.StatusUnauthorized, err.Error())
	default:
		logger.WithContext(c.Request.Context(), h.logger).Error("student request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		common.ResponseServerError(c)
	}
}
