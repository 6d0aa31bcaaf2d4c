package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acadsync/timetable-api/internal/models"
	appErrors "github.com/acadsync/timetable-api/pkg/errors"
)

// VariantCacheRepository caches hydrated variant details and scope listings
// in Redis so re-selecting a variant within the TTL avoids a solver round
// trip.
type VariantCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewVariantCacheRepository constructs a cache repository.
func NewVariantCacheRepository(client *redis.Client, logger *zap.Logger) *VariantCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariantCacheRepository{client: client, logger: logger}
}

func detailKey(variantID string) string {
	return "variant:detail:" + variantID
}

func listingKey(scope models.Scope) string {
	return "variant:listing:" + scope.Key()
}

// GetDetail retrieves a cached hydrated variant.
func (r *VariantCacheRepository) GetDetail(ctx context.Context, variantID string) (*models.Variant, error) {
	var variant models.Variant
	if err := r.get(ctx, detailKey(variantID), &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

// SetDetail stores a hydrated variant with the provided TTL.
func (r *VariantCacheRepository) SetDetail(ctx context.Context, variant *models.Variant, ttl time.Duration) error {
	return r.set(ctx, detailKey(variant.ID), variant, ttl)
}

// GetListing retrieves the cached summary list for a scope.
func (r *VariantCacheRepository) GetListing(ctx context.Context, scope models.Scope) ([]models.Variant, error) {
	var variants []models.Variant
	if err := r.get(ctx, listingKey(scope), &variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// SetListing stores a scope's summary list with the provided TTL.
func (r *VariantCacheRepository) SetListing(ctx context.Context, scope models.Scope, variants []models.Variant, ttl time.Duration) error {
	return r.set(ctx, listingKey(scope), variants, ttl)
}

// InvalidateScope drops the scope listing and every detail belonging to the
// provided variant ids. Called after approvals so stale approval states
// never serve from cache.
func (r *VariantCacheRepository) InvalidateScope(ctx context.Context, scope models.Scope, variantIDs []string) error {
	if r.client == nil {
		return nil
	}
	keys := make([]string, 0, len(variantIDs)+1)
	keys = append(keys, listingKey(scope))
	for _, id := range variantIDs {
		keys = append(keys, detailKey(id))
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate scope %s: %w", scope, err)
	}
	return nil
}

func (r *VariantCacheRepository) get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

func (r *VariantCacheRepository) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
