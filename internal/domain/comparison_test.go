package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{
			name:  "grouped display value",
			value: "8,450",
			want:  8450,
		},
		{
			name:  "value with trailing unit",
			value: "11,850 W",
			want:  11850,
		},
		{
			name:  "decimal value",
			value: "49.4",
			want:  49.4,
		},
		{
			name:  "negative value",
			value: "-12.5",
			want:  -12.5,
		},
		{
			name:  "plain integer",
			value: "200",
			want:  200,
		},
		{
			name:  "no numeric content",
			value: "N/A",
			want:  0,
		},
		{
			name:  "empty string",
			value: "",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CoerceNumeric(tt.value))
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []ComparisonTag
	}{
		{
			name:   "empty input",
			values: []string{},
			want:   []ComparisonTag{},
		},
		{
			name:   "single value below minimum set size",
			values: []string{"100"},
			want:   []ComparisonTag{},
		},
		{
			name:   "two distinct service loads",
			values: []string{"8,450", "11,850"},
			want:   []ComparisonTag{TagLowest, TagHighest},
		},
		{
			name:   "uniform set tags every value equal",
			values: []string{"200", "200", "200"},
			want:   []ComparisonTag{TagEqual, TagEqual, TagEqual},
		},
		{
			name:   "middle value tags equal",
			values: []string{"100", "150", "200"},
			want:   []ComparisonTag{TagLowest, TagEqual, TagHighest},
		},
		{
			name:   "ties at the extremes",
			values: []string{"50", "100", "50", "100"},
			want:   []ComparisonTag{TagLowest, TagHighest, TagLowest, TagHighest},
		},
		{
			name:   "formatted values rank by coerced number",
			values: []string{"1,200 W", "980 W"},
			want:   []ComparisonTag{TagHighest, TagLowest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.values))
		})
	}
}

func TestCompareValues_Symmetry(t *testing.T) {
	// Reversing the input reverses the tags; ranking does not depend
	// on position.
	forward := CompareValues([]string{"8,450", "11,850"})
	backward := CompareValues([]string{"11,850", "8,450"})

	require.Len(t, forward, 2)
	require.Len(t, backward, 2)
	assert.Equal(t, forward[0], backward[1])
	assert.Equal(t, forward[1], backward[0])
}

func TestBuildComparisonTable_Secondary(t *testing.T) {
	results := []CalculationResult{
		{
			TemplateName: "Residential Load",
			Secondary: []Metric{
				{Label: "Connected Load", Value: "9,900", Unit: "VA"},
				{Label: "Required Ampacity", Value: "35.2", Unit: "A"},
			},
		},
		{
			TemplateName: "Residential Load",
			Secondary: []Metric{
				{Label: "Connected Load", Value: "15,600", Unit: "VA"},
				{Label: "Recommended Service Size", Value: "100", Unit: "A"},
			},
		},
	}

	rows := BuildComparisonTable(results, SourceSecondary)
	require.Len(t, rows, 3)

	// Union keys appear in first-seen order.
	assert.Equal(t, "Connected Load", rows[0].Metric)
	assert.Equal(t, "Required Ampacity", rows[1].Metric)
	assert.Equal(t, "Recommended Service Size", rows[2].Metric)

	// Both declare Connected Load, so both cells are tagged.
	require.Len(t, rows[0].Cells, 2)
	assert.True(t, rows[0].Cells[0].Present)
	assert.Equal(t, TagLowest, rows[0].Cells[0].Tag)
	assert.Equal(t, TagHighest, rows[0].Cells[1].Tag)
	assert.Equal(t, "VA", rows[0].Cells[0].Unit)

	// Only the first result declares Required Ampacity: the second
	// cell renders the placeholder, and the single declared value
	// carries no tag.
	assert.True(t, rows[1].Cells[0].Present)
	assert.Empty(t, rows[1].Cells[0].Tag)
	assert.False(t, rows[1].Cells[1].Present)
	assert.Equal(t, Placeholder, rows[1].Cells[1].Value)
	assert.Empty(t, rows[1].Cells[1].Tag)
}

func TestBuildComparisonTable_Parameters(t *testing.T) {
	results := []CalculationResult{
		{InputParameters: map[string]any{"floor_area": 1800.0, "voltage": 240.0}},
		{InputParameters: map[string]any{"floor_area": 3200.0}},
	}

	rows := BuildComparisonTable(results, SourceParameters)
	require.Len(t, rows, 2)

	// Parameter rows are keyed in lexical order.
	assert.Equal(t, "floor_area", rows[0].Metric)
	assert.Equal(t, "voltage", rows[1].Metric)

	assert.Equal(t, "1800", rows[0].Cells[0].Value)
	assert.Equal(t, TagLowest, rows[0].Cells[0].Tag)
	assert.Equal(t, "3200", rows[0].Cells[1].Value)
	assert.Equal(t, TagHighest, rows[0].Cells[1].Tag)

	assert.Equal(t, "240", rows[1].Cells[0].Value)
	assert.False(t, rows[1].Cells[1].Present)
	assert.Equal(t, Placeholder, rows[1].Cells[1].Value)
}

func TestBuildComparisonTable_TagsOnlyOverDeclaringSubset(t *testing.T) {
	// Three results, two of which declare the metric. The declared
	// subset is ranked against itself only.
	results := []CalculationResult{
		{Secondary: []Metric{{Label: "Truckloads", Value: "2"}}},
		{Secondary: []Metric{}},
		{Secondary: []Metric{{Label: "Truckloads", Value: "5"}}},
	}

	rows := BuildComparisonTable(results, SourceSecondary)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Cells, 3)

	assert.Equal(t, TagLowest, rows[0].Cells[0].Tag)
	assert.False(t, rows[0].Cells[1].Present)
	assert.Equal(t, TagHighest, rows[0].Cells[2].Tag)
}

func TestCheckUnitCompatibility(t *testing.T) {
	tests := []struct {
		name    string
		results []CalculationResult
		want    bool
	}{
		{
			name:    "no results is trivially compatible",
			results: nil,
			want:    true,
		},
		{
			name: "single result is trivially compatible",
			results: []CalculationResult{
				{Primary: Metric{Unit: "W"}},
			},
			want: true,
		},
		{
			name: "identical units",
			results: []CalculationResult{
				{Primary: Metric{Unit: "W"}},
				{Primary: Metric{Unit: "W"}},
				{Primary: Metric{Unit: "W"}},
			},
			want: true,
		},
		{
			name: "mixed units",
			results: []CalculationResult{
				{Primary: Metric{Unit: "W"}},
				{Primary: Metric{Unit: "yd³"}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckUnitCompatibility(tt.results))
		})
	}
}

func TestComparePrimary(t *testing.T) {
	results := []CalculationResult{
		{Primary: Metric{Value: "8,450", Unit: "W"}},
		{Primary: Metric{Value: "11,850", Unit: "W"}},
	}

	tags, err := ComparePrimary(results)
	require.NoError(t, err)
	assert.Equal(t, []ComparisonTag{TagLowest, TagHighest}, tags)
}

func TestComparePrimary_IncompatibleUnits(t *testing.T) {
	results := []CalculationResult{
		{Primary: Metric{Value: "8,450", Unit: "W"}},
		{Primary: Metric{Value: "12.5", Unit: "yd³"}},
	}

	tags, err := ComparePrimary(results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible primary units")
	assert.Contains(t, err.Error(), "W")
	assert.Contains(t, err.Error(), "yd³")
	assert.Nil(t, tags)
}

func TestAggregateCompliance(t *testing.T) {
	results := []CalculationResult{
		{
			ExecutionID:  "exec-1",
			TemplateName: "Residential Load",
			Compliance:   Compliance{Status: Compliant},
		},
		{
			ExecutionID:  "exec-2",
			TemplateName: "Beam Sizing",
			Compliance: Compliance{
				Status: Warning,
				Notes:  []string{"span exceeds typical range"},
			},
		},
	}

	summaries := AggregateCompliance(results)
	require.Len(t, summaries, 2)

	// Statuses pass through untouched, in input order.
	assert.Equal(t, "exec-1", summaries[0].ExecutionID)
	assert.Equal(t, Compliant, summaries[0].Status)
	assert.Empty(t, summaries[0].Notes)

	assert.Equal(t, Warning, summaries[1].Status)
	assert.Equal(t, []string{"span exceeds typical range"}, summaries[1].Notes)
}
