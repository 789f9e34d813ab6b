package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scimind/portal-api/internal/models"
	"github.com/scimind/portal-api/internal/service"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/response"
)

// VideoHandler exposes video upload and listing endpoints.
type VideoHandler struct {
	service     *service.VideoService
	metrics     *service.MetricsService
	maxFileSize int64
}

// NewVideoHandler constructs a video handler.
func NewVideoHandler(svc *service.VideoService, metrics *service.MetricsService, maxFileSize int64) *VideoHandler {
	return &VideoHandler{service: svc, metrics: metrics, maxFileSize: maxFileSize}
}

// List godoc
// @Summary List videos
// @Tags Videos
// @Produce json
// @Param class_id query string false "Filter by class"
// @Param playlist_id query string false "Filter by playlist"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	var filter models.VideoFilter
	filter.ClassID = c.Query("class_id")
	filter.PlaylistID = c.Query("playlist_id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	videos, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, videos, pagination)
}

// Upload godoc
// @Summary Upload a class video
// @Tags Videos
// @Accept mpfd
// @Produce json
// @Param file formData file true "Video file"
// @Param class_code formData string true "Class code"
// @Param title formData string true "Video title"
// @Param description formData string false "Video description"
// @Param post_to_classroom formData bool false "Announce on the linked course"
// @Success 201 {object} response.Envelope
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "video file is required"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "video file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	req := service.UploadVideoRequest{
		ClassCode:       c.PostForm("class_code"),
		Title:           c.PostForm("title"),
		Description:     c.PostForm("description"),
		Filename:        fileHeader.Filename,
		PostToClassroom: c.PostForm("post_to_classroom") == "true",
		File:            file,
	}

	result, err := h.service.Upload(c.Request.Context(), req, callerID(c))
	if err != nil {
		h.metrics.RecordUpload("failed")
		response.Error(c, err)
		return
	}
	h.metrics.RecordUpload("success")
	response.Created(c, result)
}

// PostToCourse godoc
// @Summary Announce a video on its class's linked course
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 200 {object} response.Envelope
// @Router /videos/{id}/classroom [post]
func (h *VideoHandler) PostToCourse(c *gin.Context) {
	if err := h.service.PostToCourse(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "posted"}, nil)
}

// Delete godoc
// @Summary Delete video record
// @Tags Videos
// @Produce json
// @Param id path string true "Video ID"
// @Success 204
// @Router /videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
