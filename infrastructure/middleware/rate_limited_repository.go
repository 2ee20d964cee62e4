package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.TemplateRepository = (*RateLimitedTemplateRepository)(nil)

// RateLimitedTemplateRepository decorates a TemplateRepository with a
// token-bucket rate limit. It paces outbound calls against a shared
// backend so one busy engine instance cannot starve the store; calls
// block until a token is available or the context is canceled.
type RateLimitedTemplateRepository struct {
	next    ports.TemplateRepository
	limiter *rate.Limiter
}

// NewRateLimitedTemplateRepository wraps next with a token bucket of
// the given sustained rate and burst size.
func NewRateLimitedTemplateRepository(next ports.TemplateRepository, limit rate.Limit, burst int) *RateLimitedTemplateRepository {
	return &RateLimitedTemplateRepository{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimitedTemplateRepository) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// FindByID waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindByID(ctx context.Context, id string) (*domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindByID(ctx, id)
}

// FindAll waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindAll(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error) {
	if err := r.wait(ctx); err != nil {
		return domain.Paginated[domain.CalculationTemplate]{}, err
	}
	return r.next.FindAll(ctx, filter)
}

// IncrementUsage waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.next.IncrementUsage(ctx, id)
}

// UpdateRating waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.next.UpdateRating(ctx, id, rating)
}

// FindVerified waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindVerified(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindVerified(ctx, limit)
}

// FindFeatured waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindFeatured(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindFeatured(ctx, limit)
}

// FindTrending waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindTrending(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindTrending(ctx, limit)
}

// FindSimilar waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) FindSimilar(ctx context.Context, id string, limit int) ([]domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.FindSimilar(ctx, id, limit)
}

// GetRecommendations waits for rate limit permission before delegating.
func (r *RateLimitedTemplateRepository) GetRecommendations(ctx context.Context, profession string, limit int) ([]domain.CalculationTemplate, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.next.GetRecommendations(ctx, profession, limit)
}
