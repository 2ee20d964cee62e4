package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.ExecutionRepository = (*ExecutionStore)(nil)

// ExecutionStore is an in-memory ports.ExecutionRepository. Executions
// are held newest-last and assigned UUID execution ids on save.
type ExecutionStore struct {
	mu         sync.RWMutex
	executions []domain.CalculationResult
}

// NewExecutionStore creates an empty ExecutionStore.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{}
}

// SaveExecution persists the result and returns its assigned execution
// id. The stored record is a copy; the caller's result is unchanged.
func (s *ExecutionStore) SaveExecution(ctx context.Context, result domain.CalculationResult) (string, error) {
	id := uuid.NewString()
	stored := result.WithExecutionID(id)

	s.mu.Lock()
	s.executions = append(s.executions, stored)
	s.mu.Unlock()
	return id, nil
}

// GetExecutionHistory returns up to limit executions for the user,
// newest first, optionally narrowed to one template.
func (s *ExecutionStore) GetExecutionHistory(ctx context.Context, userID, templateID string, limit int) ([]domain.CalculationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]domain.CalculationResult, 0, limit)
	for i := len(s.executions) - 1; i >= 0 && len(history) < limit; i-- {
		e := s.executions[i]
		if e.UserID != userID {
			continue
		}
		if templateID != "" && e.TemplateID != templateID {
			continue
		}
		history = append(history, e)
	}
	return history, nil
}

// GetExecutionStats summarizes the persisted history of a template.
func (s *ExecutionStore) GetExecutionStats(ctx context.Context, templateID string) (domain.ExecutionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.ExecutionStats
	users := make(map[string]bool)
	for _, e := range s.executions {
		if e.TemplateID != templateID {
			continue
		}
		stats.TotalExecutions++
		if e.UserID != "" {
			users[e.UserID] = true
		}
		if e.CreatedAt.After(stats.LastExecutedAt) {
			stats.LastExecutedAt = e.CreatedAt
		}
	}
	stats.UniqueUsers = len(users)
	return stats, nil
}
