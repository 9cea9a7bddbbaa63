package repositories

import (
	"context"
	"encoding/json"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/utils"

	"github.com/redis/go-redis/v9"
)

const activePricingKey = "pricing:active"

// CachedPricingRepository fronts active rule reads with Redis. Writes through
// it drop the cached set after the primary write. Redis errors fall through to
// the primary repository. It must wrap a non-transactional repository.
type CachedPricingRepository struct {
	primary     PricingRules
	redisClient *redis.Client
	ttl         time.Duration
}

func NewCachedPricingRepository(primary PricingRules, redisClient *redis.Client, ttl time.Duration) *CachedPricingRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedPricingRepository{primary: primary, redisClient: redisClient, ttl: ttl}
}

func (r *CachedPricingRepository) ListActive(ctx context.Context) ([]models.PricingRule, error) {
	cached, err := r.redisClient.Get(ctx, activePricingKey).Bytes()
	if err == nil {
		var rules []models.PricingRule
		if err := json.Unmarshal(cached, &rules); err == nil {
			return rules, nil
		}
	}

	rules, err := r.primary.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(rules); err == nil {
		if err := r.redisClient.Set(ctx, activePricingKey, data, r.ttl).Err(); err != nil {
			utils.LogEventCtx(ctx, "PRICING", "cache_set", "redis unavailable: "+err.Error())
		}
	}
	return rules, nil
}

func (r *CachedPricingRepository) GetActiveByCategory(ctx context.Context, category models.VehicleCategory) (models.PricingRule, error) {
	rules, err := r.ListActive(ctx)
	if err != nil {
		return models.PricingRule{}, err
	}
	for _, rule := range rules {
		if rule.Category == category {
			return rule, nil
		}
	}
	return models.PricingRule{}, domain.NotFoundError{Resource: "pricing rule"}
}

func (r *CachedPricingRepository) List(ctx context.Context) ([]models.PricingRule, error) {
	return r.primary.List(ctx)
}

func (r *CachedPricingRepository) Create(ctx context.Context, rule *models.PricingRule) error {
	defer r.Invalidate(ctx)
	return r.primary.Create(ctx, rule)
}

func (r *CachedPricingRepository) Update(ctx context.Context, rule models.PricingRule) error {
	defer r.Invalidate(ctx)
	return r.primary.Update(ctx, rule)
}

func (r *CachedPricingRepository) Delete(ctx context.Context, id int64) error {
	defer r.Invalidate(ctx)
	return r.primary.Delete(ctx, id)
}

// Invalidate drops the cached active set.
func (r *CachedPricingRepository) Invalidate(ctx context.Context) {
	if err := r.redisClient.Del(ctx, activePricingKey).Err(); err != nil {
		utils.LogEventCtx(ctx, "PRICING", "cache_invalidate", "redis unavailable: "+err.Error())
	}
}
