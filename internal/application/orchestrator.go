package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

// statsPageCap bounds the catalog page GetAggregatedStats computes
// over. When the catalog exceeds the cap, the stats are an
// approximation over that page, not a true global aggregate.
const statsPageCap = 1000

// defaultHistoryLimit is applied when a history caller passes a
// non-positive limit.
const defaultHistoryLimit = 20

// Orchestrator coordinates template lookup, parameter validation,
// formula execution, and the usage/favorite/persistence side effects
// that follow. It holds no mutable state across calls: every operation
// receives all required context as arguments.
type Orchestrator struct {
	templates  ports.TemplateRepository
	executions ports.ExecutionRepository
	favorites  ports.FavoritesRepository
	validator  *ParameterValidator
	executor   *FormulaExecutor

	observer ports.ExecutionObserver
	metrics  ports.MetricsCollector

	// now is injectable for deterministic timestamps in tests.
	now func() time.Time
}

// Option configures optional orchestrator collaborators.
type Option func(*Orchestrator)

// WithObserver attaches an execution observer that is notified around
// every ExecuteCalculation call.
func WithObserver(observer ports.ExecutionObserver) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

// WithMetrics attaches a metrics collector that records execution
// counts and latencies.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// NewOrchestrator creates an Orchestrator over the three repository
// boundaries and a formula registry.
func NewOrchestrator(
	templates ports.TemplateRepository,
	executions ports.ExecutionRepository,
	favorites ports.FavoritesRepository,
	registry ports.FormulaRegistry,
	opts ...Option,
) (*Orchestrator, error) {
	if templates == nil {
		return nil, fmt.Errorf("template repository cannot be nil")
	}
	if executions == nil {
		return nil, fmt.Errorf("execution repository cannot be nil")
	}
	if favorites == nil {
		return nil, fmt.Errorf("favorites repository cannot be nil")
	}

	executor, err := NewFormulaExecutor(registry)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		templates:  templates,
		executions: executions,
		favorites:  favorites,
		validator:  NewParameterValidator(),
		executor:   executor,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ExecuteCalculation runs the template identified by templateID against
// the supplied parameters and returns the result enriched with its
// persisted execution id.
//
// The sequence is: lookup, active check, validation, execution, usage
// increment, persistence. Validation failures are fully local and occur
// before any side effect, so they are safe to retry after correcting
// input. The usage increment and the execution persist are two
// independent calls against the store: usage counting is at-least-once
// (a retried call increments again), and an increment is not rolled
// back when the subsequent persist fails.
func (o *Orchestrator) ExecuteCalculation(ctx context.Context, templateID string, parameters map[string]any, userID string) (*domain.CalculationResult, error) {
	started := o.now()
	if o.observer != nil {
		ctx = o.observer.ExecutionStarted(ctx, templateID)
	}

	result, err := o.executeCalculation(ctx, templateID, parameters, userID)

	elapsed := o.now().Sub(started)
	if o.observer != nil {
		o.observer.ExecutionFinished(ctx, templateID, result, elapsed, err)
	}
	if o.metrics != nil {
		labels := map[string]string{"template_id": templateID, "status": executionStatus(err)}
		o.metrics.RecordCounter("calc_executions_total", 1, labels)
		o.metrics.RecordLatency("execute_calculation", elapsed, labels)
	}
	return result, err
}

func (o *Orchestrator) executeCalculation(ctx context.Context, templateID string, parameters map[string]any, userID string) (*domain.CalculationResult, error) {
	template, err := o.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, fmt.Errorf("template %s: %w", templateID, domain.ErrTemplateInactive)
	}

	if verr := o.validator.Validate(template, parameters); verr != nil {
		return nil, verr
	}

	result, err := o.executor.Execute(ctx, template, parameters)
	if err != nil {
		return nil, err
	}
	result.UserID = userID

	if err := o.templates.IncrementUsage(ctx, templateID); err != nil {
		return nil, domain.NewRepositoryError("IncrementUsage", err)
	}

	executionID, err := o.executions.SaveExecution(ctx, *result)
	if err != nil {
		// The usage counter already advanced; it is deliberately not
		// rolled back here.
		return nil, domain.NewRepositoryError("SaveExecution", err)
	}

	enriched := result.WithExecutionID(executionID)
	return &enriched, nil
}

// SaveCalculationResult persists a result with optional user-supplied
// metadata, independent of ExecuteCalculation, and returns the assigned
// execution id.
func (o *Orchestrator) SaveCalculationResult(ctx context.Context, result domain.CalculationResult, name, notes string) (string, error) {
	savedAt := o.now()
	result.SavedName = name
	result.SavedNotes = notes
	result.SavedAt = &savedAt

	executionID, err := o.executions.SaveExecution(ctx, result)
	if err != nil {
		return "", domain.NewRepositoryError("SaveExecution", err)
	}
	return executionID, nil
}

// ToggleFavorite flips the user's favorite state for the template and
// returns the new state. The check and the write are two separate
// round trips with no transactional guarantee: concurrent toggles from
// the same user can leave the remote state diverged from the returned
// boolean. The store's consistency is outside this engine's control.
func (o *Orchestrator) ToggleFavorite(ctx context.Context, userID, templateID string) (bool, error) {
	isFavorite, err := o.favorites.IsFavorite(ctx, userID, templateID)
	if err != nil {
		return false, domain.NewRepositoryError("IsFavorite", err)
	}

	if isFavorite {
		if err := o.favorites.RemoveFavorite(ctx, userID, templateID); err != nil {
			return false, domain.NewRepositoryError("RemoveFavorite", err)
		}
		return false, nil
	}

	if err := o.favorites.AddFavorite(ctx, userID, templateID); err != nil {
		return false, domain.NewRepositoryError("AddFavorite", err)
	}
	return true, nil
}

// GetUserFavorites resolves each of the user's favorite ids to a
// template. Ids that no longer resolve are silently dropped from the
// result rather than reported: a stale favorite reference is not a
// caller error. Repository failures other than a miss still propagate.
func (o *Orchestrator) GetUserFavorites(ctx context.Context, userID string) ([]domain.CalculationTemplate, error) {
	ids, err := o.favorites.GetFavorites(ctx, userID)
	if err != nil {
		return nil, domain.NewRepositoryError("GetFavorites", err)
	}

	templates := make([]domain.CalculationTemplate, 0, len(ids))
	for _, id := range ids {
		template, err := o.templates.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, domain.NewRepositoryError("FindByID", err)
		}
		templates = append(templates, *template)
	}
	return templates, nil
}

// GetAggregatedStats summarizes the catalog over a bounded page of up
// to 1000 templates. When the catalog exceeds the cap the counters are
// an approximation over that page. An empty catalog yields all zeroes.
func (o *Orchestrator) GetAggregatedStats(ctx context.Context) (domain.CatalogStats, error) {
	page, err := o.templates.FindAll(ctx, domain.TemplateFilter{Page: 1, Limit: statsPageCap})
	if err != nil {
		return domain.CatalogStats{}, domain.NewRepositoryError("FindAll", err)
	}
	return domain.AggregateCatalog(page.Data), nil
}

// GetTemplateStats joins the template's usage, execution, and favorite
// aggregates. The three reads are issued concurrently and the join is
// fail-fast: if any source fails, the whole operation fails with no
// partial stats.
func (o *Orchestrator) GetTemplateStats(ctx context.Context, templateID string) (domain.TemplateStats, error) {
	var (
		usage      domain.UsageStats
		executions domain.ExecutionStats
		favorites  domain.FavoriteStats
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		template, err := o.templates.FindByID(ctx, templateID)
		if err != nil {
			return err
		}
		usage = domain.UsageStats{
			UsageCount:    template.UsageCount,
			AverageRating: template.AverageRating,
			RatingCount:   template.RatingCount,
		}
		return nil
	})
	g.Go(func() error {
		var err error
		executions, err = o.executions.GetExecutionStats(ctx, templateID)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = o.favorites.GetFavoriteStats(ctx, templateID)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.TemplateStats{}, err
	}
	return domain.MergeTemplateStats(usage, executions, favorites), nil
}

// GetExecutionHistory returns the user's past executions, newest first,
// optionally narrowed to one template. Non-positive limits fall back to
// a default of 20.
func (o *Orchestrator) GetExecutionHistory(ctx context.Context, userID, templateID string, limit int) ([]domain.CalculationResult, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	history, err := o.executions.GetExecutionHistory(ctx, userID, templateID, limit)
	if err != nil {
		return nil, domain.NewRepositoryError("GetExecutionHistory", err)
	}
	return history, nil
}

// RateTemplate folds one user rating into the template's running
// average. Ratings outside the 1-5 scale fail with
// domain.ErrInvalidRating before any call to the store.
func (o *Orchestrator) RateTemplate(ctx context.Context, templateID string, rating float64) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %.1f", domain.ErrInvalidRating, rating)
	}
	if err := o.templates.UpdateRating(ctx, templateID, rating); err != nil {
		return domain.NewRepositoryError("UpdateRating", err)
	}
	return nil
}

// SearchTemplates returns one catalog page narrowed by the filter, with
// the documented defaults applied to unset fields.
func (o *Orchestrator) SearchTemplates(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error) {
	page, err := o.templates.FindAll(ctx, filter.WithDefaults())
	if err != nil {
		return domain.Paginated[domain.CalculationTemplate]{}, domain.NewRepositoryError("FindAll", err)
	}
	return page, nil
}

// TemplateView pairs a template with its derived read-model flags.
type TemplateView struct {
	Template domain.CalculationTemplate `json:"template"`
	Flags    domain.TemplateFlags       `json:"flags"`
}

// GetTemplate resolves a template and computes its read-model flags at
// the current instant. Flags are derived on every read, never stored.
func (o *Orchestrator) GetTemplate(ctx context.Context, templateID string) (*TemplateView, error) {
	template, err := o.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return &TemplateView{
		Template: *template,
		Flags:    domain.ComputeFlags(template, o.now()),
	}, nil
}

func executionStatus(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}
