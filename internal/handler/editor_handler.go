package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsync/timetable-api/internal/dto"
	"github.com/acadsync/timetable-api/internal/models"
	"github.com/acadsync/timetable-api/internal/service"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
	"github.com/acadsync/timetable-api/pkg/response"
)

// EditorHandler exposes manual cell edit endpoints.
type EditorHandler struct {
	editor *service.EditorService
}

// NewEditorHandler constructs handler.
func NewEditorHandler(editor *service.EditorService) *EditorHandler {
	return &EditorHandler{editor: editor}
}

// EditSectionCell godoc
// @Summary Edit one cell of a section timetable
// @Tags Editor
// @Accept json
// @Produce json
// @Param id path string true "Variant ID"
// @Param entityId path string true "Section ID"
// @Param course query string true "Course code"
// @Param year query int true "Year of study"
// @Param semester query int true "Semester number"
// @Param request body dto.EditCellRequest true "Cell mutation"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /variants/{id}/sections/{entityId}/cells [put]
func (h *EditorHandler) EditSectionCell(c *gin.Context) {
	h.editCell(c, models.EntityKindSection)
}

// EditFacultyCell godoc
// @Summary Edit one cell of a faculty timetable
// @Tags Editor
// @Accept json
// @Produce json
// @Param id path string true "Variant ID"
// @Param entityId path string true "Faculty ID"
// @Param course query string true "Course code"
// @Param year query int true "Year of study"
// @Param semester query int true "Semester number"
// @Param request body dto.EditCellRequest true "Cell mutation"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /variants/{id}/faculty/{entityId}/cells [put]
func (h *EditorHandler) EditFacultyCell(c *gin.Context) {
	h.editCell(c, models.EntityKindFaculty)
}

func (h *EditorHandler) editCell(c *gin.Context, kind models.EntityKind) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EditCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell edit payload"))
		return
	}
	entity, err := h.editor.EditCell(
		c.Request.Context(),
		scope,
		c.Param("id"),
		kind,
		c.Param("entityId"),
		req.Day,
		models.PeriodKey(req.Period),
		req.Slot,
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entity, nil)
}
