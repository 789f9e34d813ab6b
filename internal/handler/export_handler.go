package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scimind/portal-api/internal/models"
	"github.com/scimind/portal-api/internal/service"
	"github.com/scimind/portal-api/pkg/response"
)

// ExportHandler streams generated export files back to the caller.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// StudentRoster godoc
// @Summary Download the student roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Filter by student status"
// @Param search query string false "Search name or code"
// @Success 200 {file} file
// @Router /exports/students [get]
func (h *ExportHandler) StudentRoster(c *gin.Context) {
	filter := models.StudentFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))

	file, err := h.service.StudentRoster(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// FeeStatement godoc
// @Summary Download a fee statement PDF for a student
// @Tags Exports
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Success 200 {file} file
// @Router /exports/students/{studentId}/fees [get]
func (h *ExportHandler) FeeStatement(c *gin.Context) {
	file, err := h.service.FeeStatement(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
