package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/models"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

type solverClient interface {
	ListSolutions(ctx context.Context, scope models.Scope) ([]models.Variant, error)
	GetSolution(ctx context.Context, id string) (*models.Variant, error)
	Approve(ctx context.Context, id string) error
	Generate(ctx context.Context, scope models.Scope) error
}

type variantCache interface {
	GetDetail(ctx context.Context, variantID string) (*models.Variant, error)
	SetDetail(ctx context.Context, variant *models.Variant, ttl time.Duration) error
	GetListing(ctx context.Context, scope models.Scope) ([]models.Variant, error)
	SetListing(ctx context.Context, scope models.Scope, variants []models.Variant, ttl time.Duration) error
	InvalidateScope(ctx context.Context, scope models.Scope, variantIDs []string) error
}

// VariantConfig tunes caching of solver responses.
type VariantConfig struct {
	CacheEnabled bool
	DetailTTL    time.Duration
	ListingTTL   time.Duration
}

// ScopeSession is the explicit per-scope state holder: cached summaries,
// the current variant pointer, the approved id and the entity pagination
// cursor. Sessions for different scopes never share state.
type ScopeSession struct {
	mu sync.Mutex

	scope    models.Scope
	variants map[string]*models.Variant
	order    []string

	currentID    string
	approvedID   string
	entityCursor int

	// hydrationSeq tags the most recently requested hydration. Responses
	// arriving for an older request are discarded so a slow fetch for
	// variant A never overwrites a later selection of variant B.
	hydrationSeq uint64
}

// VariantService fronts the solver backend's variant listings and owns the
// approval state machine.
type VariantService struct {
	client  solverClient
	cache   variantCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     VariantConfig

	mu       sync.Mutex
	sessions map[string]*ScopeSession
}

// NewVariantService wires the service.
func NewVariantService(client solverClient, cache variantCache, metrics *MetricsService, cfg VariantConfig, logger *zap.Logger) *VariantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DetailTTL <= 0 {
		cfg.DetailTTL = 15 * time.Minute
	}
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 5 * time.Minute
	}
	return &VariantService{
		client:   client,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		sessions: make(map[string]*ScopeSession),
	}
}

func (s *VariantService) session(scope models.Scope) *ScopeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope.Key()
	session, ok := s.sessions[key]
	if !ok {
		session = &ScopeSession{scope: scope, variants: make(map[string]*models.Variant)}
		s.sessions[key] = session
	}
	return session
}

// List fetches the scope's variant summaries sorted ascending by rank. The
// backend-reported approval state is authoritative; previously hydrated
// grids survive a re-listing.
func (s *VariantService) List(ctx context.Context, scope models.Scope) ([]*models.Variant, error) {
	summaries, fromCache, err := s.fetchListing(ctx, scope)
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Rank < summaries[j].Rank })

	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()

	session.order = session.order[:0]
	approvedID := ""
	result := make([]*models.Variant, 0, len(summaries))
	for i := range summaries {
		summary := summaries[i]
		existing, ok := session.variants[summary.ID]
		if ok {
			existing.Rank = summary.Rank
			existing.FitnessScore = summary.FitnessScore
			existing.Statistics = summary.Statistics
			existing.ApprovalState = summary.ApprovalState
		} else {
			copied := summary
			existing = &copied
			session.variants[summary.ID] = existing
		}
		if existing.ApprovalState == models.ApprovalApproved {
			approvedID = existing.ID
		}
		session.order = append(session.order, existing.ID)
		result = append(result, existing)
	}
	session.approvedID = approvedID

	if !fromCache && s.cache != nil && s.cfg.CacheEnabled {
		if err := s.cache.SetListing(ctx, scope, summaries, s.cfg.ListingTTL); err != nil {
			s.logger.Warn("cache listing write failed", zap.String("scope", scope.Key()), zap.Error(err))
		}
	}
	return result, nil
}

func (s *VariantService) fetchListing(ctx context.Context, scope models.Scope) ([]models.Variant, bool, error) {
	if s.cache != nil && s.cfg.CacheEnabled {
		if cached, err := s.cache.GetListing(ctx, scope); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return cached, true, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}
	summaries, err := s.client.ListSolutions(ctx, scope)
	if err != nil {
		return nil, false, err
	}
	return summaries, false, nil
}

// Hydrate fetches full grid detail for a variant, merges it into the cached
// summary, installs it as the scope's current variant and resets the entity
// cursor. A hydration superseded by a newer request is discarded and
// reported as stale.
func (s *VariantService) Hydrate(ctx context.Context, scope models.Scope, variantID string) (*models.Variant, error) {
	session := s.session(scope)

	session.mu.Lock()
	session.hydrationSeq++
	seq := session.hydrationSeq
	session.mu.Unlock()

	detail, err := s.fetchDetail(ctx, variantID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.hydrationSeq != seq {
		s.logger.Debug("discarding stale hydration",
			zap.String("scope", scope.Key()),
			zap.String("variant_id", variantID),
		)
		return nil, appErrors.ErrStaleHydration
	}

	merged := session.merge(detail)
	session.currentID = merged.ID
	session.entityCursor = 0
	if s.metrics != nil {
		s.metrics.RecordHydration()
	}
	return merged, nil
}

func (s *VariantService) fetchDetail(ctx context.Context, variantID string) (*models.Variant, error) {
	if s.cache != nil && s.cfg.CacheEnabled {
		if cached, err := s.cache.GetDetail(ctx, variantID); err == nil && cached.Hydrated() {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
	}
	detail, err := s.client.GetSolution(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cfg.CacheEnabled {
		if err := s.cache.SetDetail(ctx, detail, s.cfg.DetailTTL); err != nil {
			s.logger.Warn("cache detail write failed", zap.String("variant_id", variantID), zap.Error(err))
		}
	}
	return detail, nil
}

// merge folds a hydrated detail into the session, retaining the summary
// fields already cached for the variant. Caller holds session.mu.
func (session *ScopeSession) merge(detail *models.Variant) *models.Variant {
	existing, ok := session.variants[detail.ID]
	if !ok {
		session.variants[detail.ID] = detail
		return detail
	}
	existing.Sections = detail.Sections
	existing.Faculty = detail.Faculty
	existing.SectionOrder = detail.SectionOrder
	existing.FacultyOrder = detail.FacultyOrder
	if !detail.GeneratedAt.IsZero() {
		existing.GeneratedAt = detail.GeneratedAt
	}
	return existing
}

// Select makes the variant current. An already hydrated variant is used
// directly without touching the network; anything else is hydrated first.
func (s *VariantService) Select(ctx context.Context, scope models.Scope, variant *models.Variant) (*models.Variant, error) {
	if variant == nil {
		return nil, appErrors.ErrVariantNotFound
	}
	if !variant.Hydrated() {
		return s.Hydrate(ctx, scope, variant.ID)
	}

	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	session.hydrationSeq++ // a direct selection supersedes in-flight hydrations
	if _, ok := session.variants[variant.ID]; !ok {
		session.variants[variant.ID] = variant
	} else {
		session.merge(variant)
	}
	session.currentID = variant.ID
	session.entityCursor = 0
	return session.variants[variant.ID], nil
}

// SelectByID resolves the variant in the session and selects it, hydrating
// on demand.
func (s *VariantService) SelectByID(ctx context.Context, scope models.Scope, variantID string) (*models.Variant, error) {
	session := s.session(scope)
	session.mu.Lock()
	variant, ok := session.variants[variantID]
	session.mu.Unlock()
	if ok && variant.Hydrated() {
		return s.Select(ctx, scope, variant)
	}
	return s.Hydrate(ctx, scope, variantID)
}

// Approve requests exclusive approval for the variant. On success exactly
// one variant in the scope ends up approved: the target. Backend rejection
// leaves local state untouched.
func (s *VariantService) Approve(ctx context.Context, scope models.Scope, variantID string) error {
	if err := s.client.Approve(ctx, variantID); err != nil {
		return err
	}

	session := s.session(scope)
	session.mu.Lock()
	ids := make([]string, 0, len(session.variants))
	for id, variant := range session.variants {
		ids = append(ids, id)
		if id == variantID {
			variant.ApprovalState = models.ApprovalApproved
		} else {
			variant.ApprovalState = models.ApprovalPending
		}
	}
	if _, ok := session.variants[variantID]; !ok {
		session.variants[variantID] = &models.Variant{ID: variantID, ApprovalState: models.ApprovalApproved}
		ids = append(ids, variantID)
	}
	session.approvedID = variantID
	session.mu.Unlock()

	if s.cache != nil && s.cfg.CacheEnabled {
		if err := s.cache.InvalidateScope(ctx, scope, ids); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("scope", scope.Key()), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.RecordApproval()
	}
	s.logger.Info("variant approved",
		zap.String("scope", scope.Key()),
		zap.String("variant_id", variantID),
	)
	return nil
}

// Generate triggers an external regeneration run for the scope.
func (s *VariantService) Generate(ctx context.Context, scope models.Scope) error {
	return s.client.Generate(ctx, scope)
}

// Current returns the scope's current variant, if one has been selected.
func (s *VariantService) Current(scope models.Scope) (*models.Variant, bool) {
	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.currentID == "" {
		return nil, false
	}
	variant, ok := session.variants[session.currentID]
	return variant, ok
}

// ApprovedID returns the approved variant id recorded for the scope, empty
// when none is approved.
func (s *VariantService) ApprovedID(scope models.Scope) string {
	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.approvedID
}

// Variant resolves a variant by id within the scope's session.
func (s *VariantService) Variant(scope models.Scope, variantID string) (*models.Variant, bool) {
	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	variant, ok := session.variants[variantID]
	return variant, ok
}

// EntityCursor returns the scope's entity pagination index.
func (s *VariantService) EntityCursor(scope models.Scope) int {
	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.entityCursor
}

// SetEntityCursor moves the entity pagination index, clamping at zero.
func (s *VariantService) SetEntityCursor(scope models.Scope, index int) {
	session := s.session(scope)
	session.mu.Lock()
	defer session.mu.Unlock()
	if index < 0 {
		index = 0
	}
	session.entityCursor = index
}
