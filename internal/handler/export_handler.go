package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/acadsync/timetable-api/internal/dto"
	"github.com/acadsync/timetable-api/internal/middleware"
	"github.com/acadsync/timetable-api/internal/models"
	"github.com/acadsync/timetable-api/internal/service"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
	"github.com/acadsync/timetable-api/pkg/jobs"
	"github.com/acadsync/timetable-api/pkg/response"
)

// ExportHandler exposes synchronous downloads and the async export job API.
type ExportHandler struct {
	exports *service.ExportService
	queue   *jobs.Queue
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService, queue *jobs.Queue) *ExportHandler {
	return &ExportHandler{exports: exports, queue: queue}
}

// Download godoc
// @Summary Render and download a timetable export
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Variant ID"
// @Param course query string true "Course code"
// @Param year query int true "Year of study"
// @Param semester query int true "Semester number"
// @Param format query string true "Export format" Enums(pdf, xlsx, csv)
// @Param target query string true "Export target" Enums(section, faculty, all-sections, all-faculty)
// @Param entityId query string false "Entity ID for single entity targets"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /variants/{id}/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := models.ExportFormat(c.Query("format"))
	target := models.ExportTarget(c.Query("target"))
	if target == "" {
		target = models.ExportTargetAllSections
	}
	if !target.Bulk() && c.Query("entityId") == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "entityId is required for single entity exports"))
		return
	}

	artifact, err := h.exports.Render(c.Request.Context(), models.ExportJobParams{
		Scope:     scope,
		VariantID: c.Param("id"),
		Target:    target,
		EntityID:  c.Query("entityId"),
		Format:    format,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Payload)
}

// Enqueue godoc
// @Summary Queue a background export job
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest true "Export parameters"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	createdBy := ""
	if claims, ok := middleware.CurrentUser(c); ok {
		createdBy = claims.UserID
	}
	job, err := h.exports.Enqueue(c.Request.Context(), req, createdBy, h.queue)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ExportJobResponse{
		ID:       job.ID,
		Status:   job.Status,
		Progress: job.Progress,
	}, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.exports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ExportStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil)
}

// DownloadByToken godoc
// @Summary Download a finished export artifact
// @Tags Exports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *ExportHandler) DownloadByToken(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token"))
		return
	}

	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrExportNotFound, "export artifact no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeForPath(relPath), file, nil)
}

func contentTypeForPath(relPath string) string {
	switch filepath.Ext(relPath) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
