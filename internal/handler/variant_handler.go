package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadsync/timetable-api/internal/dto"
	"github.com/acadsync/timetable-api/internal/models"
	"github.com/acadsync/timetable-api/internal/service"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
	"github.com/acadsync/timetable-api/pkg/response"
)

// VariantHandler exposes variant listing, hydration and approval endpoints.
type VariantHandler struct {
	variants *service.VariantService
}

// NewVariantHandler constructs handler.
func NewVariantHandler(variants *service.VariantService) *VariantHandler {
	return &VariantHandler{variants: variants}
}

func scopeFromPath(c *gin.Context) (models.Scope, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "year must be a positive integer")
	}
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil || semester < 1 {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "semester must be a positive integer")
	}
	course := c.Param("course")
	if course == "" {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "course is required")
	}
	return models.Scope{Course: course, Year: year, Semester: semester}, nil
}

func scopeFromQuery(c *gin.Context) (models.Scope, error) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "year query parameter must be a positive integer")
	}
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil || semester < 1 {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "semester query parameter must be a positive integer")
	}
	course := c.Query("course")
	if course == "" {
		return models.Scope{}, appErrors.Clone(appErrors.ErrValidation, "course query parameter is required")
	}
	return models.Scope{Course: course, Year: year, Semester: semester}, nil
}

// List godoc
// @Summary List schedule variants for a scope
// @Tags Variants
// @Produce json
// @Param course path string true "Course code"
// @Param year path int true "Year of study"
// @Param semester path int true "Semester number"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scopes/{course}/{year}/{semester}/variants [get]
func (h *VariantHandler) List(c *gin.Context) {
	scope, err := scopeFromPath(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	variants, err := h.variants.List(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	summaries := make([]dto.VariantSummaryResponse, 0, len(variants))
	for _, variant := range variants {
		summaries = append(summaries, dto.SummaryFromVariant(variant))
	}
	response.JSON(c, http.StatusOK, summaries, nil, map[string]interface{}{
		"approvedId": h.variants.ApprovedID(scope),
	})
}

// Get godoc
// @Summary Fetch full variant detail
// @Tags Variants
// @Produce json
// @Param id path string true "Variant ID"
// @Param course query string true "Course code"
// @Param year query int true "Year of study"
// @Param semester query int true "Semester number"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /variants/{id} [get]
func (h *VariantHandler) Get(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	variant, err := h.variants.SelectByID(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, variant, nil)
}

// Approve godoc
// @Summary Approve a variant for its scope
// @Tags Variants
// @Produce json
// @Param id path string true "Variant ID"
// @Param course query string true "Course code"
// @Param year query int true "Year of study"
// @Param semester query int true "Semester number"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /variants/{id}/approve [post]
func (h *VariantHandler) Approve(c *gin.Context) {
	scope, err := scopeFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	variantID := c.Param("id")
	if err := h.variants.Approve(c.Request.Context(), scope, variantID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"approvedId": variantID}, nil)
}

// Generate godoc
// @Summary Trigger timetable regeneration for a scope
// @Tags Variants
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "Scope to regenerate"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /generate [post]
func (h *VariantHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload"))
		return
	}
	scope := models.Scope{Course: req.Course, Year: req.Year, Semester: req.Semester}
	if err := h.variants.Generate(c.Request.Context(), scope); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"scope": scope.Key()}, nil)
}
