package dto

import "github.com/acadsync/timetable-api/internal/models"

// SolutionListResponse mirrors the solver backend's listing payload.
type SolutionListResponse struct {
	Solutions []models.Variant `json:"solutions"`
}

// ApproveRequest is the solver backend's approval payload.
type ApproveRequest struct {
	SolutionID string `json:"solutionId"`
}

// ApproveResponse reports whether the backend accepted the approval.
type ApproveResponse struct {
	Success bool `json:"success"`
}

// GenerateRequest triggers a regeneration run for a scope.
type GenerateRequest struct {
	Course   string `json:"course" binding:"required"`
	Year     int    `json:"year" binding:"required,min=1,max=6"`
	Semester int    `json:"semester" binding:"required,min=1,max=12"`
}

// VariantSummaryResponse is the listing shape served by this API. Grid
// detail never rides along with summaries.
type VariantSummaryResponse struct {
	ID            string                   `json:"id"`
	Rank          int                      `json:"rank"`
	FitnessScore  float64                  `json:"fitnessScore"`
	Statistics    models.VariantStatistics `json:"statistics"`
	ApprovalState models.ApprovalState     `json:"approvalState"`
}

// SummaryFromVariant projects a variant down to its summary fields.
func SummaryFromVariant(v *models.Variant) VariantSummaryResponse {
	return VariantSummaryResponse{
		ID:            v.ID,
		Rank:          v.Rank,
		FitnessScore:  v.FitnessScore,
		Statistics:    v.Statistics,
		ApprovalState: v.ApprovalState,
	}
}
