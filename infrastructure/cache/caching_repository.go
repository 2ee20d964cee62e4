package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.TemplateRepository = (*CachingTemplateRepository)(nil)

// DefaultTemplateTTL bounds how stale a cached template lookup may be.
const DefaultTemplateTTL = 5 * time.Minute

// CachingTemplateRepository decorates a TemplateRepository with
// read-through caching of FindByID. Writes that touch a template
// (usage increments, rating updates) invalidate its cache entry before
// delegating, so the next read observes the store. Catalog queries are
// not cached: their result sets are filter-dependent and cheap to
// paginate at the store.
type CachingTemplateRepository struct {
	next  ports.TemplateRepository
	cache ports.CacheStore
	ttl   time.Duration
}

// NewCachingTemplateRepository wraps next with read-through caching.
// A non-positive ttl falls back to DefaultTemplateTTL.
func NewCachingTemplateRepository(next ports.TemplateRepository, cache ports.CacheStore, ttl time.Duration) *CachingTemplateRepository {
	if ttl <= 0 {
		ttl = DefaultTemplateTTL
	}
	return &CachingTemplateRepository{next: next, cache: cache, ttl: ttl}
}

// FindByID reads through the cache. Cache failures degrade to the
// underlying repository rather than failing the lookup.
func (r *CachingTemplateRepository) FindByID(ctx context.Context, id string) (*domain.CalculationTemplate, error) {
	key := templateKey(id)

	if raw, ok, err := r.cache.Get(ctx, key); err != nil {
		slog.Warn("template cache read failed", "id", id, "error", err)
	} else if ok {
		if template, ok := decodeTemplate(raw); ok {
			return template, nil
		}
	}

	template, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(template); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			slog.Warn("template cache write failed", "id", id, "error", err)
		}
	}
	return template, nil
}

// IncrementUsage invalidates the cached template, then delegates.
func (r *CachingTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	r.invalidate(ctx, id)
	return r.next.IncrementUsage(ctx, id)
}

// UpdateRating invalidates the cached template, then delegates.
func (r *CachingTemplateRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	r.invalidate(ctx, id)
	return r.next.UpdateRating(ctx, id, rating)
}

// FindAll delegates to the underlying repository.
func (r *CachingTemplateRepository) FindAll(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error) {
	return r.next.FindAll(ctx, filter)
}

// FindVerified delegates to the underlying repository.
func (r *CachingTemplateRepository) FindVerified(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.next.FindVerified(ctx, limit)
}

// FindFeatured delegates to the underlying repository.
func (r *CachingTemplateRepository) FindFeatured(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.next.FindFeatured(ctx, limit)
}

// FindTrending delegates to the underlying repository.
func (r *CachingTemplateRepository) FindTrending(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.next.FindTrending(ctx, limit)
}

// FindSimilar delegates to the underlying repository.
func (r *CachingTemplateRepository) FindSimilar(ctx context.Context, id string, limit int) ([]domain.CalculationTemplate, error) {
	return r.next.FindSimilar(ctx, id, limit)
}

// GetRecommendations delegates to the underlying repository.
func (r *CachingTemplateRepository) GetRecommendations(ctx context.Context, profession string, limit int) ([]domain.CalculationTemplate, error) {
	return r.next.GetRecommendations(ctx, profession, limit)
}

func (r *CachingTemplateRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, templateKey(id)); err != nil {
		slog.Warn("template cache invalidation failed", "id", id, "error", err)
	}
}

func templateKey(id string) string { return "template:" + id }

func decodeTemplate(raw any) (*domain.CalculationTemplate, bool) {
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil, false
	}

	var template domain.CalculationTemplate
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, false
	}
	return &template, true
}
