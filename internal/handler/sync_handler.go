package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scimind/portal-api/internal/service"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/response"
)

// SyncHandler exposes reconciliation endpoints.
type SyncHandler struct {
	service *service.SyncService
	metrics *service.MetricsService
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(svc *service.SyncService, metrics *service.MetricsService) *SyncHandler {
	return &SyncHandler{service: svc, metrics: metrics}
}

type syncRequest struct {
	TeacherEmail string `json:"teacher_email" binding:"required"`
}

// Courses godoc
// @Summary Reconcile classroom courses into local mirrors
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body syncRequest true "Sync payload"
// @Success 200 {object} response.Envelope
// @Router /sync/courses [post]
func (h *SyncHandler) Courses(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ReconcileCourses(c.Request.Context(), req.TeacherEmail, callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSync("courses", result.Added, result.Updated)
	response.JSON(c, http.StatusOK, result, nil)
}

// Playlists godoc
// @Summary Reconcile playlists into local video placeholders
// @Tags Sync
// @Accept json
// @Produce json
// @Param payload body syncRequest true "Sync payload"
// @Success 200 {object} response.Envelope
// @Router /sync/playlists [post]
func (h *SyncHandler) Playlists(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.ReconcilePlaylists(c.Request.Context(), req.TeacherEmail, callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSync("playlists", result.Added, result.Updated)
	response.JSON(c, http.StatusOK, result, nil)
}
