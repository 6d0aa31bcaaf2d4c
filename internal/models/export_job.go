package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFormat enumerates supported timetable export formats.
type ExportFormat string

const (
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

// Valid reports whether the format is one of the supported values.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatPDF, ExportFormatXLSX, ExportFormatCSV:
		return true
	}
	return false
}

// ExportTarget selects which entities of a variant an export covers.
type ExportTarget string

const (
	ExportTargetSection    ExportTarget = "section"
	ExportTargetFaculty    ExportTarget = "faculty"
	ExportTargetAllSections ExportTarget = "all-sections"
	ExportTargetAllFaculty ExportTarget = "all-faculty"
)

// Bulk reports whether the target spans every entity of a kind.
func (t ExportTarget) Bulk() bool {
	return t == ExportTargetAllSections || t == ExportTargetAllFaculty
}

// Kind returns the entity kind the target addresses.
func (t ExportTarget) Kind() EntityKind {
	if t == ExportTargetFaculty || t == ExportTargetAllFaculty {
		return EntityKindFaculty
	}
	return EntityKindSection
}

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is a persisted background export of one variant's timetables.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores request-scoped export options persisted as JSONB.
type ExportJobParams struct {
	Scope     Scope        `json:"scope"`
	VariantID string       `json:"variantId"`
	Rank      int          `json:"rank"`
	Target    ExportTarget `json:"target"`
	EntityID  string       `json:"entityId,omitempty"`
	Format    ExportFormat `json:"format"`
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
