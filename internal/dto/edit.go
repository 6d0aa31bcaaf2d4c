package dto

import "github.com/acadsync/timetable-api/internal/models"

// EditCellRequest captures a single-cell timetable mutation.
type EditCellRequest struct {
	Day    models.Day  `json:"day" binding:"required"`
	Period int         `json:"period" binding:"required,min=1"`
	Slot   models.Slot `json:"slot"`
}
