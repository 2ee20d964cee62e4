// Package memstore provides in-memory implementations of the engine's
// repository boundaries. The stores are safe for concurrent use and
// back tests, examples, and single-process deployments.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.TemplateRepository = (*TemplateStore)(nil)

// fuzzyDistance is the maximum levenshtein distance at which a search
// term still matches a catalog word when no substring match exists.
const fuzzyDistance = 2

// TemplateStore is an in-memory ports.TemplateRepository.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]domain.CalculationTemplate

	// now is injectable for deterministic trending checks in tests.
	now func() time.Time
}

// NewTemplateStore creates an empty TemplateStore.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]domain.CalculationTemplate),
		now:       time.Now,
	}
}

// Put inserts or replaces a template. It is the seeding hook used by
// the catalog loader and tests.
func (s *TemplateStore) Put(template domain.CalculationTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.ID] = template
}

// FindByID resolves a template by id, returning domain.ErrNotFound for
// unknown ids.
func (s *TemplateStore) FindByID(ctx context.Context, id string) (*domain.CalculationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	template, ok := s.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copy := template
	return &copy, nil
}

// FindAll returns one catalog page narrowed by the filter, with the
// documented defaults applied to unset fields.
func (s *TemplateStore) FindAll(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error) {
	filter = filter.WithDefaults()

	s.mu.RLock()
	matched := make([]domain.CalculationTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if matchesFilter(t, filter) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	sortTemplates(matched, filter.SortBy)

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return domain.NewPaginated(matched[start:end], total, filter.Page, filter.Limit), nil
}

// IncrementUsage adds exactly one to the template's usage counter.
func (s *TemplateStore) IncrementUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok {
		return domain.ErrNotFound
	}
	template.UsageCount++
	s.templates[id] = template
	return nil
}

// UpdateRating folds one rating into the template's running average.
func (s *TemplateStore) UpdateRating(ctx context.Context, id string, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.templates[id]
	if !ok {
		return domain.ErrNotFound
	}
	count := float64(template.RatingCount)
	template.AverageRating = (template.AverageRating*count + rating) / (count + 1)
	template.RatingCount++
	s.templates[id] = template
	return nil
}

// FindVerified returns up to limit expert-reviewed active templates,
// most used first.
func (s *TemplateStore) FindVerified(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return s.collect(limit, func(t domain.CalculationTemplate) bool {
		return t.IsActive && t.IsVerified
	}), nil
}

// FindFeatured returns up to limit promoted active templates, most
// used first.
func (s *TemplateStore) FindFeatured(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return s.collect(limit, func(t domain.CalculationTemplate) bool {
		return t.IsActive && t.IsFeatured
	}), nil
}

// FindTrending returns up to limit active templates currently
// qualifying as trending.
func (s *TemplateStore) FindTrending(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return s.collect(limit, func(t domain.CalculationTemplate) bool {
		return t.IsActive && domain.Trending(t.UsageCount, t.AverageRating)
	}), nil
}

// FindSimilar returns up to limit active templates sharing the given
// template's category or at least one tag, most used first.
func (s *TemplateStore) FindSimilar(ctx context.Context, id string, limit int) ([]domain.CalculationTemplate, error) {
	s.mu.RLock()
	anchor, ok := s.templates[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	return s.collect(limit, func(t domain.CalculationTemplate) bool {
		if t.ID == id || !t.IsActive {
			return false
		}
		return t.Category == anchor.Category || sharesTag(t.Tags, anchor.Tags)
	}), nil
}

// GetRecommendations returns up to limit active templates for the given
// profession, most used first.
func (s *TemplateStore) GetRecommendations(ctx context.Context, profession string, limit int) ([]domain.CalculationTemplate, error) {
	return s.collect(limit, func(t domain.CalculationTemplate) bool {
		return t.IsActive && strings.EqualFold(t.TargetProfession, profession)
	}), nil
}

// collect gathers matching templates sorted by usage descending.
func (s *TemplateStore) collect(limit int, match func(domain.CalculationTemplate) bool) []domain.CalculationTemplate {
	s.mu.RLock()
	out := make([]domain.CalculationTemplate, 0)
	for _, t := range s.templates {
		if match(t) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sortTemplates(out, domain.SortPopular)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesFilter(t domain.CalculationTemplate, f domain.TemplateFilter) bool {
	if !t.IsActive && !f.IncludeInactive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.TargetProfession != "" && !strings.EqualFold(t.TargetProfession, f.TargetProfession) {
		return false
	}
	if f.ShowOnlyVerified && !t.IsVerified {
		return false
	}
	if f.ShowOnlyFeatured && !t.IsFeatured {
		return false
	}
	if len(f.Tags) > 0 && !sharesTag(t.Tags, f.Tags) {
		return false
	}
	if f.SearchTerm != "" && !matchesSearch(t, f.SearchTerm) {
		return false
	}
	return true
}

// matchesSearch checks the term against name, description, and tags.
// Substring matches win; otherwise a small levenshtein distance against
// individual name words tolerates typos like "conrete".
func matchesSearch(t domain.CalculationTemplate, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Name), term) ||
		strings.Contains(strings.ToLower(t.Description), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	for _, word := range strings.Fields(strings.ToLower(t.Name)) {
		if levenshtein.ComputeDistance(word, term) <= fuzzyDistance {
			return true
		}
	}
	return false
}

func sharesTag(tags, wanted []string) bool {
	for _, tag := range tags {
		for _, w := range wanted {
			if strings.EqualFold(tag, w) {
				return true
			}
		}
	}
	return false
}

func sortTemplates(templates []domain.CalculationTemplate, by domain.SortOption) {
	sort.SliceStable(templates, func(i, j int) bool {
		a, b := templates[i], templates[j]
		switch by {
		case domain.SortRating:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case domain.SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case domain.SortName:
			return a.Name < b.Name
		default: // SortPopular
			if a.UsageCount != b.UsageCount {
				return a.UsageCount > b.UsageCount
			}
		}
		// Ties fall back to name for a stable, predictable order.
		return a.Name < b.Name
	})
}
