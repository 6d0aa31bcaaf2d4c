package dto

import "github.com/acadsync/timetable-api/internal/models"

// ExportRequest captures POST /exports payloads.
type ExportRequest struct {
	Course    string              `json:"course" binding:"required" validate:"required"`
	Year      int                 `json:"year" binding:"required" validate:"required,min=1"`
	Semester  int                 `json:"semester" binding:"required" validate:"required,min=1"`
	VariantID string              `json:"variantId" binding:"required" validate:"required"`
	Rank      int                 `json:"rank,omitempty" validate:"min=0"`
	Target    models.ExportTarget `json:"target" binding:"required" validate:"required"`
	EntityID  string              `json:"entityId,omitempty"`
	Format    models.ExportFormat `json:"format" binding:"required" validate:"required"`
}

// Scope assembles the request's scope value.
func (r ExportRequest) Scope() models.Scope {
	return models.Scope{Course: r.Course, Year: r.Year, Semester: r.Semester}
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
