package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.ExecutionRepository = (*ExecutionRepository)(nil)

// ExecutionRepository implements ports.ExecutionRepository on
// PostgreSQL. Execution ids are UUIDs assigned on save.
type ExecutionRepository struct {
	pool *pgxpool.Pool
}

// NewExecutionRepository creates an ExecutionRepository over the given
// pool.
func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

// SaveExecution persists the result and returns its assigned execution
// id.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, result domain.CalculationResult) (string, error) {
	primary, err := json.Marshal(result.Primary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal primary metric: %w", err)
	}
	secondary, err := json.Marshal(result.Secondary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal secondary metrics: %w", err)
	}
	compliance, err := json.Marshal(result.Compliance)
	if err != nil {
		return "", fmt.Errorf("failed to marshal compliance: %w", err)
	}
	inputs, err := json.Marshal(result.InputParameters)
	if err != nil {
		return "", fmt.Errorf("failed to marshal input parameters: %w", err)
	}

	id := uuid.NewString()
	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO calculation_executions
		 (id, template_id, template_name, user_id, project_id,
		  primary_metric, secondary_metrics, compliance, input_parameters,
		  saved_name, saved_notes, saved_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, result.TemplateID, result.TemplateName, result.UserID, result.ProjectID,
		primary, secondary, compliance, inputs,
		result.SavedName, result.SavedNotes, result.SavedAt, createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert execution: %w", err)
	}
	return id, nil
}

// GetExecutionHistory returns up to limit executions for the user,
// newest first, optionally narrowed to one template.
func (r *ExecutionRepository) GetExecutionHistory(ctx context.Context, userID, templateID string, limit int) ([]domain.CalculationResult, error) {
	query := `SELECT id, template_id, template_name, user_id, project_id,
	                 primary_metric, secondary_metrics, compliance, input_parameters,
	                 saved_name, saved_notes, saved_at, created_at
	          FROM calculation_executions WHERE user_id = $1`
	args := []any{userID}
	if templateID != "" {
		query += ` AND template_id = $2`
		args = append(args, templateID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var history []domain.CalculationResult
	for rows.Next() {
		var (
			result     domain.CalculationResult
			primary    []byte
			secondary  []byte
			compliance []byte
			inputs     []byte
		)
		err := rows.Scan(
			&result.ExecutionID, &result.TemplateID, &result.TemplateName,
			&result.UserID, &result.ProjectID,
			&primary, &secondary, &compliance, &inputs,
			&result.SavedName, &result.SavedNotes, &result.SavedAt, &result.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if err := json.Unmarshal(primary, &result.Primary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal primary metric: %w", err)
		}
		if len(secondary) > 0 {
			if err := json.Unmarshal(secondary, &result.Secondary); err != nil {
				return nil, fmt.Errorf("failed to unmarshal secondary metrics: %w", err)
			}
		}
		if err := json.Unmarshal(compliance, &result.Compliance); err != nil {
			return nil, fmt.Errorf("failed to unmarshal compliance: %w", err)
		}
		if len(inputs) > 0 {
			if err := json.Unmarshal(inputs, &result.InputParameters); err != nil {
				return nil, fmt.Errorf("failed to unmarshal input parameters: %w", err)
			}
		}
		history = append(history, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate executions: %w", err)
	}
	return history, nil
}

// GetExecutionStats summarizes the persisted history of a template.
func (r *ExecutionRepository) GetExecutionStats(ctx context.Context, templateID string) (domain.ExecutionStats, error) {
	var (
		stats  domain.ExecutionStats
		lastAt *time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT user_id) FILTER (WHERE user_id <> ''),
		        MAX(created_at)
		 FROM calculation_executions WHERE template_id = $1`, templateID).
		Scan(&stats.TotalExecutions, &stats.UniqueUsers, &lastAt)
	if err != nil {
		return domain.ExecutionStats{}, fmt.Errorf("failed to query execution stats: %w", err)
	}
	if lastAt != nil {
		stats.LastExecutedAt = *lastAt
	}
	return stats, nil
}
