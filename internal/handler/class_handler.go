package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scimind/portal-api/internal/models"
	"github.com/scimind/portal-api/internal/service"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/response"
)

// ClassHandler exposes class CRUD and classroom linkage endpoints.
type ClassHandler struct {
	service *service.ClassService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc *service.ClassService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param status query string false "Filter by status"
// @Param subject query string false "Filter by subject"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	var filter models.ClassFilter
	filter.Status = c.Query("status")
	filter.Subject = c.Query("subject")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	classes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param code path string true "Class code"
// @Success 200 {object} response.Envelope
// @Router /classes/{code} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, warning, err := h.service.Create(c.Request.Context(), req, callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if warning != "" {
		response.CreatedWithWarning(c, class, warning)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update class
// @Tags Classes
// @Accept json
// @Produce json
// @Param code path string true "Class code"
// @Param payload body service.UpdateClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{code} [patch]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.service.Update(c.Request.Context(), c.Param("code"), req, callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete class and dependent rows
// @Tags Classes
// @Produce json
// @Param code path string true "Class code"
// @Success 200 {object} response.Envelope
// @Router /classes/{code} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	summary, err := h.service.Delete(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// LinkClassroom godoc
// @Summary Create a classroom course for an existing class
// @Tags Classes
// @Produce json
// @Param code path string true "Class code"
// @Success 201 {object} response.Envelope
// @Router /classes/{code}/classroom [post]
func (h *ClassHandler) LinkClassroom(c *gin.Context) {
	mirror, err := h.service.LinkClassroom(c.Request.Context(), c.Param("code"), callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mirror)
}

// MapResources godoc
// @Summary Link synced resources to a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.MapResourcesRequest true "Mapping payload"
// @Success 200 {object} response.Envelope
// @Router /classes/map-resources [post]
func (h *ClassHandler) MapResources(c *gin.Context) {
	var req service.MapResourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.MapResources(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
