package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/models"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

type entityUpdater interface {
	UpdateFaculty(ctx context.Context, entity *models.ScheduleEntity) error
	UpdateSection(ctx context.Context, entity *models.ScheduleEntity) error
}

type variantAccessor interface {
	Variant(scope models.Scope, variantID string) (*models.Variant, bool)
}

// EditorService applies manual cell edits to a hydrated variant and
// persists the modified entity back through the solver. Edits never touch
// the variant's rank, fitness score, or approval state.
type EditorService struct {
	variants variantAccessor
	solver   entityUpdater
	logger   *zap.Logger
}

// NewEditorService constructs an EditorService.
func NewEditorService(variants variantAccessor, solver entityUpdater, logger *zap.Logger) *EditorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{variants: variants, solver: solver, logger: logger}
}

// EditCell replaces a single slot in one entity's grid and persists the full
// updated entity. Returns the updated entity on success.
func (s *EditorService) EditCell(ctx context.Context, scope models.Scope, variantID string, kind models.EntityKind, entityID string, day models.Day, period models.PeriodKey, slot models.Slot) (*models.ScheduleEntity, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	if !validDay(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day: "+string(day))
	}

	variant, ok := s.variants.Variant(scope, variantID)
	if !ok {
		return nil, appErrors.ErrVariantNotFound
	}
	if !variant.Hydrated() {
		return nil, appErrors.ErrNotHydrated
	}

	entity, ok := variant.Entity(kind, entityID)
	if !ok {
		return nil, appErrors.ErrEntityNotFound
	}
	if _, ok := entity.Grid.Periods[period]; !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period is not part of this timetable")
	}

	previous := entity.Grid.Slot(day, period)
	entity.Grid.SetSlot(day, period, slot)

	if err := s.persist(ctx, kind, entity); err != nil {
		entity.Grid.SetSlot(day, period, previous)
		return nil, err
	}

	s.logger.Info("timetable cell updated",
		zap.String("variant_id", variantID),
		zap.String("entity_kind", string(kind)),
		zap.String("entity_id", entityID),
		zap.String("day", string(day)),
		zap.Int("period", int(period)),
	)
	return entity, nil
}

func (s *EditorService) persist(ctx context.Context, kind models.EntityKind, entity *models.ScheduleEntity) error {
	if kind == models.EntityKindFaculty {
		return s.solver.UpdateFaculty(ctx, entity)
	}
	return s.solver.UpdateSection(ctx, entity)
}

// validateSlot accepts the explicit FREE/BREAK sentinels or an assignment
// with a non-empty subject. A blank subject is rejected rather than being
// read as FREE, so a malformed edit cannot silently clear a cell.
func validateSlot(slot models.Slot) error {
	if slot.IsFree() || slot.IsBreak() {
		return nil
	}
	if strings.TrimSpace(slot.Subject) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "slot subject must not be empty")
	}
	return nil
}

func validDay(day models.Day) bool {
	for _, d := range models.Days {
		if d == day {
			return true
		}
	}
	return false
}
