package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

func TestExecutionStore_SaveExecution(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	result := domain.CalculationResult{TemplateID: "residential-load", UserID: "user-1"}
	id, err := store.SaveExecution(ctx, result)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	other, err := store.SaveExecution(ctx, result)
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "each save gets its own execution id")

	// The caller's result is unchanged.
	assert.Empty(t, result.ExecutionID)
}

func TestExecutionStore_GetExecutionHistory(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	for i, templateID := range []string{"a", "b", "a", "a"} {
		_, err := store.SaveExecution(ctx, domain.CalculationResult{
			TemplateID: templateID,
			UserID:     "user-1",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := store.SaveExecution(ctx, domain.CalculationResult{
		TemplateID: "a", UserID: "user-2", CreatedAt: base,
	})
	require.NoError(t, err)

	// Newest first, scoped to the user.
	history, err := store.GetExecutionHistory(ctx, "user-1", "", 10)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, base.Add(3*time.Minute), history[0].CreatedAt)
	assert.Equal(t, base, history[3].CreatedAt)

	// Narrowed to one template.
	history, err = store.GetExecutionHistory(ctx, "user-1", "a", 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	// Limit truncates from the newest end.
	history, err = store.GetExecutionHistory(ctx, "user-1", "", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, base.Add(3*time.Minute), history[0].CreatedAt)

	// Unknown user has an empty history.
	history, err = store.GetExecutionHistory(ctx, "nobody", "", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecutionStore_GetExecutionStats(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	saves := []struct {
		templateID string
		userID     string
		at         time.Time
	}{
		{"a", "user-1", base},
		{"a", "user-1", base.Add(time.Hour)},
		{"a", "user-2", base.Add(2 * time.Hour)},
		{"b", "user-3", base.Add(3 * time.Hour)},
	}
	for _, s := range saves {
		_, err := store.SaveExecution(ctx, domain.CalculationResult{
			TemplateID: s.templateID, UserID: s.userID, CreatedAt: s.at,
		})
		require.NoError(t, err)
	}

	stats, err := store.GetExecutionStats(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalExecutions)
	assert.Equal(t, 2, stats.UniqueUsers)
	assert.Equal(t, base.Add(2*time.Hour), stats.LastExecutedAt)

	// A template with no executions yields zero stats.
	stats, err = store.GetExecutionStats(ctx, "never-run")
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStats{}, stats)
}
