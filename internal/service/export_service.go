package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/dto"
	"github.com/acadsync/timetable-api/internal/models"
	"github.com/acadsync/timetable-api/internal/repository"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
	"github.com/acadsync/timetable-api/pkg/export"
	"github.com/acadsync/timetable-api/pkg/jobs"
	"github.com/acadsync/timetable-api/pkg/storage"
)

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type variantSelector interface {
	SelectByID(ctx context.Context, scope models.Scope, variantID string) (*models.Variant, error)
}

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// Artifact is a synchronously rendered export held in memory.
type Artifact struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders timetable variants into downloadable artifacts,
// both synchronously and through the background job queue.
type ExportService struct {
	variants variantSelector
	jobsRepo exportJobStore
	storage  fileStorage
	signer   *storage.SignedURLSigner
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	cfg      ExportConfig

	pdf  documentRenderer
	xlsx documentRenderer
	csv  documentRenderer

	clock func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(variants variantSelector, jobsRepo exportJobStore, store fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		variants: variants,
		jobsRepo: jobsRepo,
		storage:  store,
		signer:   signer,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
		cfg:      cfg,
		pdf:      export.NewPDFRenderer(),
		xlsx:     export.NewXLSXRenderer(),
		csv:      export.NewCSVRenderer(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Render produces an export artifact in memory for immediate download.
func (s *ExportService) Render(ctx context.Context, params models.ExportJobParams) (*Artifact, error) {
	if !params.Format.Valid() {
		return nil, appErrors.ErrUnsupportedFormat
	}

	variant, err := s.variants.SelectByID(ctx, params.Scope, params.VariantID)
	if err != nil {
		return nil, err
	}

	doc, err := s.BuildDocument(variant, params)
	if err != nil {
		return nil, err
	}

	start := s.clock()
	payload, err := s.render(doc, params.Format)
	s.metrics.RecordExport(string(params.Format), err == nil, s.clock().Sub(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export rendering failed")
	}

	return &Artifact{
		Filename:    doc.Name + "." + string(params.Format),
		ContentType: contentTypeFor(params.Format),
		Payload:     payload,
	}, nil
}

func (s *ExportService) render(doc export.Document, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.ExportFormatPDF:
		return s.pdf.Render(doc)
	case models.ExportFormatXLSX:
		return s.xlsx.Render(doc)
	case models.ExportFormatCSV:
		return s.csv.Render(doc)
	default:
		return nil, appErrors.ErrUnsupportedFormat
	}
}

// BuildDocument assembles the renderer-neutral document: entities in
// declared order, one table per entity, rows in ascending period order,
// columns in fixed day order behind a leading Time column. An entity
// without timetable data yields a placeholder table instead of an error.
func (s *ExportService) BuildDocument(variant *models.Variant, params models.ExportJobParams) (export.Document, error) {
	if variant == nil || !variant.Hydrated() {
		return export.Document{}, appErrors.ErrNotHydrated
	}

	var entities []*models.ScheduleEntity
	var baseName string
	kind := params.Target.Kind()
	if params.Target.Bulk() {
		entities = variant.EntitiesOf(kind)
		if kind == models.EntityKindFaculty {
			baseName = "All-Faculty"
		} else {
			baseName = "All-Sections"
		}
	} else {
		entity, ok := variant.Entity(kind, params.EntityID)
		if !ok {
			return export.Document{}, appErrors.ErrEntityNotFound
		}
		entities = []*models.ScheduleEntity{entity}
		baseName = entity.Name
	}
	if len(entities) == 0 {
		return export.Document{}, appErrors.ErrNoTimetableData
	}

	rank := params.Rank
	if rank == 0 {
		rank = variant.Rank
	}

	doc := export.Document{
		Name:        buildFilename(baseName, rank),
		GeneratedAt: s.clock(),
		Tables:      make([]export.Table, 0, len(entities)),
	}
	for _, entity := range entities {
		doc.Tables = append(doc.Tables, buildTable(entity))
	}
	return doc, nil
}

func buildTable(entity *models.ScheduleEntity) export.Table {
	dayLabels := make([]string, 0, len(models.Days))
	for _, day := range models.Days {
		dayLabels = append(dayLabels, day.Label())
	}
	table := export.Table{
		Title:    entity.Name,
		Subtitle: entity.Department,
		Header:   export.StandardHeader(dayLabels),
	}

	grid := &entity.Grid
	if grid.Empty() {
		table.Empty = true
		return table
	}

	for _, period := range grid.SortedPeriodKeys() {
		row := make([]string, 0, len(models.Days)+1)
		row = append(row, grid.Periods[period])
		for _, day := range models.Days {
			row = append(row, formatSlot(grid.Slot(day, period)))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// formatSlot renders a slot as cell text: sentinels verbatim, assignments
// as their non-empty fields joined on newlines with the subject first.
func formatSlot(slot models.Slot) string {
	if slot.IsSentinel() {
		if strings.TrimSpace(slot.Subject) == "" {
			return models.SlotFree
		}
		return strings.ToUpper(strings.TrimSpace(slot.Subject))
	}
	parts := make([]string, 0, 4)
	for _, part := range []string{slot.Subject, slot.Counterpart, slot.Room, slot.SessionType} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}

// buildFilename applies the artifact naming convention
// {EntityName}-Timetable[-Variant-{rank}].
func buildFilename(base string, rank int) string {
	name := sanitizeFilename(base) + "-Timetable"
	if rank > 0 {
		name += fmt.Sprintf("-Variant-%d", rank)
	}
	return name
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}

func contentTypeFor(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatPDF:
		return "application/pdf"
	case models.ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case models.ExportFormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// Enqueue persists an export job and hands it to the worker queue.
func (s *ExportService) Enqueue(ctx context.Context, req dto.ExportRequest, createdBy string, queue *jobs.Queue) (*models.ExportJob, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	if !req.Format.Valid() {
		return nil, appErrors.ErrUnsupportedFormat
	}
	if !req.Target.Bulk() && req.EntityID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entityId is required for single entity exports")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			Scope:     req.Scope(),
			VariantID: req.VariantID,
			Rank:      req.Rank,
			Target:    req.Target,
			EntityID:  req.EntityID,
			Format:    req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist export job")
	}
	if queue != nil {
		if err := queue.Enqueue(jobs.Job{ID: job.ID, Type: "timetable_export", Payload: job.ID}); err != nil {
			s.logger.Error("failed to enqueue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	return job, nil
}

// Process executes one queued export job: hydrate, render, store, sign.
// Wired as the jobs.Queue handler.
func (s *ExportService) Process(ctx context.Context, job jobs.Job) error {
	jobID, _ := job.Payload.(string)
	if jobID == "" {
		jobID = job.ID
	}
	row, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}

	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.jobsRepo.Update(ctx, row.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	artifact, err := s.Render(ctx, row.Params)
	if err != nil {
		s.failJob(ctx, row.ID, err)
		return err
	}

	relPath, err := s.storage.Save(artifact.Filename, artifact.Payload)
	if err != nil {
		s.failJob(ctx, row.ID, err)
		return err
	}

	resultURL, err := s.signResultURL(row.ID, relPath)
	if err != nil {
		if delErr := s.storage.Delete(relPath); delErr != nil {
			s.logger.Warn("orphaned export artifact", zap.String("path", relPath), zap.Error(delErr))
		}
		s.failJob(ctx, row.ID, err)
		return err
	}

	finished := models.ExportStatusFinished
	done := 100
	now := s.clock()
	if err := s.jobsRepo.Update(ctx, row.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		Progress:   &done,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return err
	}
	s.logger.Info("export finished",
		zap.String("job_id", row.ID),
		zap.String("format", string(row.Params.Format)),
		zap.String("path", relPath),
	)
	return nil
}

func (s *ExportService) failJob(ctx context.Context, jobID string, cause error) {
	failed := models.ExportStatusFailed
	message := cause.Error()
	now := s.clock()
	if err := s.jobsRepo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ExportService) signResultURL(jobID, relPath string) (string, error) {
	token, _, err := s.signer.Generate(jobID, relPath)
	if err != nil {
		return "", err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/export/%s", prefix, token), nil
}

// Status returns job progress metadata.
func (s *ExportService) Status(ctx context.Context, jobID string) (*models.ExportJob, error) {
	row, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrExportNotFound, "")
	}
	return row, nil
}

// RecoverQueued re-enqueues jobs left QUEUED by a previous process.
func (s *ExportService) RecoverQueued(ctx context.Context, queue *jobs.Queue) error {
	rows, err := s.jobsRepo.ListQueued(ctx, 0)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := queue.Enqueue(jobs.Job{ID: row.ID, Type: "timetable_export", Payload: row.ID}); err != nil {
			return err
		}
	}
	return nil
}

// ParseToken validates a download token and returns its claims.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored artifact.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes artifacts older than ttl and clears the result URL on the
// finished jobs they belonged to, so Status stops advertising dead links.
// ttl <= 0 falls back to the configured result TTL.
func (s *ExportService) Cleanup(ctx context.Context, ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return removed, err
	}
	rows, err := s.jobsRepo.ListFinishedBefore(ctx, s.clock().Add(-ttl), 100)
	if err != nil {
		return removed, err
	}
	expired := ""
	for _, row := range rows {
		if row.ResultURL == nil || *row.ResultURL == "" {
			continue
		}
		if err := s.jobsRepo.Update(ctx, row.ID, repository.UpdateExportJobParams{ResultURL: &expired}); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
