package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.TemplateRepository = (*TemplateRepository)(nil)

// TemplateRepository implements ports.TemplateRepository on PostgreSQL.
type TemplateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a TemplateRepository over the given
// pool.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

const templateColumns = `id, name, description, category, target_profession, nec_reference,
	parameters, formula_kind, formula_config, is_active, is_verified, is_featured,
	version, usage_count, average_rating, rating_count, tags, created_at`

// FindByID resolves a template by id, returning domain.ErrNotFound for
// unknown ids.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*domain.CalculationTemplate, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates WHERE id = $1`, id)

	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	return template, nil
}

// FindAll returns one catalog page narrowed by the filter.
func (r *TemplateRepository) FindAll(ctx context.Context, filter domain.TemplateFilter) (domain.Paginated[domain.CalculationTemplate], error) {
	filter = filter.WithDefaults()
	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM calculation_templates ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.Paginated[domain.CalculationTemplate]{}, fmt.Errorf("failed to count templates: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM calculation_templates %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		templateColumns, where, orderClause(filter.SortBy), len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	templates, err := r.queryTemplates(ctx, query, args...)
	if err != nil {
		return domain.Paginated[domain.CalculationTemplate]{}, err
	}
	return domain.NewPaginated(templates, total, filter.Page, filter.Limit), nil
}

// IncrementUsage adds exactly one to the template's usage counter in a
// single statement.
func (r *TemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE calculation_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateRating folds one rating into the running average in a single
// statement.
func (r *TemplateRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE calculation_templates
		 SET average_rating = (average_rating * rating_count + $2) / (rating_count + 1),
		     rating_count = rating_count + 1
		 WHERE id = $1`, id, rating)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindVerified returns up to limit expert-reviewed active templates.
func (r *TemplateRepository) FindVerified(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates
		 WHERE is_active AND is_verified ORDER BY usage_count DESC LIMIT $1`, limit)
}

// FindFeatured returns up to limit promoted active templates.
func (r *TemplateRepository) FindFeatured(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates
		 WHERE is_active AND is_featured ORDER BY usage_count DESC LIMIT $1`, limit)
}

// FindTrending returns up to limit active templates currently
// qualifying as trending. The thresholds mirror the read-model flags.
func (r *TemplateRepository) FindTrending(ctx context.Context, limit int) ([]domain.CalculationTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates
		 WHERE is_active AND usage_count > 50 AND average_rating > 4.0
		 ORDER BY usage_count DESC LIMIT $1`, limit)
}

// FindSimilar returns up to limit active templates sharing the given
// template's category or at least one tag.
func (r *TemplateRepository) FindSimilar(ctx context.Context, id string, limit int) ([]domain.CalculationTemplate, error) {
	anchor, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates
		 WHERE is_active AND id <> $1 AND (category = $2 OR tags && $3)
		 ORDER BY usage_count DESC LIMIT $4`,
		id, anchor.Category, anchor.Tags, limit)
}

// GetRecommendations returns up to limit active templates for the given
// profession.
func (r *TemplateRepository) GetRecommendations(ctx context.Context, profession string, limit int) ([]domain.CalculationTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM calculation_templates
		 WHERE is_active AND LOWER(target_profession) = LOWER($1)
		 ORDER BY usage_count DESC LIMIT $2`, profession, limit)
}

// Insert stores a new template. It backs catalog seeding and tests.
func (r *TemplateRepository) Insert(ctx context.Context, t domain.CalculationTemplate) error {
	parameters, err := json.Marshal(t.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}
	formulaConfig, err := json.Marshal(t.FormulaConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal formula config: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO calculation_templates (`+templateColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		t.ID, t.Name, t.Description, t.Category, t.TargetProfession, t.NECReference,
		parameters, t.FormulaKind, formulaConfig, t.IsActive, t.IsVerified, t.IsFeatured,
		t.Version, t.UsageCount, t.AverageRating, t.RatingCount, t.Tags, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]domain.CalculationTemplate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.CalculationTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, *template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}
	return templates, nil
}

func scanTemplate(row pgx.Row) (*domain.CalculationTemplate, error) {
	var (
		t             domain.CalculationTemplate
		parameters    []byte
		formulaConfig []byte
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Category, &t.TargetProfession, &t.NECReference,
		&parameters, &t.FormulaKind, &formulaConfig, &t.IsActive, &t.IsVerified, &t.IsFeatured,
		&t.Version, &t.UsageCount, &t.AverageRating, &t.RatingCount, &t.Tags, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(parameters) > 0 {
		if err := json.Unmarshal(parameters, &t.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
		}
	}
	if len(formulaConfig) > 0 {
		if err := json.Unmarshal(formulaConfig, &t.FormulaConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal formula config: %w", err)
		}
	}
	return &t, nil
}

// buildWhere assembles the WHERE clause for FindAll from the filter.
func buildWhere(f domain.TemplateFilter) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		clauses = append(clauses, "is_active")
	}
	if f.Category != "" {
		clauses = append(clauses, "LOWER(category) = LOWER("+arg(f.Category)+")")
	}
	if f.TargetProfession != "" {
		clauses = append(clauses, "LOWER(target_profession) = LOWER("+arg(f.TargetProfession)+")")
	}
	if f.ShowOnlyVerified {
		clauses = append(clauses, "is_verified")
	}
	if f.ShowOnlyFeatured {
		clauses = append(clauses, "is_featured")
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, "tags && "+arg(f.Tags))
	}
	if f.SearchTerm != "" {
		pattern := arg("%" + f.SearchTerm + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(name ILIKE %s OR description ILIKE %s OR EXISTS (SELECT 1 FROM unnest(tags) tag WHERE tag ILIKE %s))",
			pattern, pattern, pattern))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps a sort option to a whitelisted ORDER BY expression.
func orderClause(by domain.SortOption) string {
	switch by {
	case domain.SortRating:
		return "average_rating DESC, name ASC"
	case domain.SortNewest:
		return "created_at DESC, name ASC"
	case domain.SortName:
		return "name ASC"
	default:
		return "usage_count DESC, name ASC"
	}
}
