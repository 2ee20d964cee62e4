package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComparisonTag classifies one value within a compared set.
type ComparisonTag string

// Tags assigned by CompareValues.
const (
	// TagHighest marks a value equal to the maximum of the compared set,
	// when the set is not uniform.
	TagHighest ComparisonTag = "highest"

	// TagLowest marks a value equal to the minimum of the compared set,
	// when the set is not uniform.
	TagLowest ComparisonTag = "lowest"

	// TagEqual marks a value that is neither the strict maximum nor the
	// strict minimum. A uniform set tags every value equal.
	TagEqual ComparisonTag = "equal"
)

// Bounds on the number of results a comparison operates over.
// Selection-set membership is owned by the caller; the engine only
// documents the limits.
const (
	// MinComparisonResults is the smallest set that produces any
	// comparison output.
	MinComparisonResults = 2

	// MaxComparisonResults is the documented upper bound on concurrently
	// compared results.
	MaxComparisonResults = 4
)

// Placeholder is rendered in a comparison table cell when a result does
// not declare the row's metric.
const Placeholder = "—"

// CoerceNumeric extracts a number from a formatted display value by
// stripping every character that is not a digit, '.', or '-', so
// "8,450 W" coerces to 8450. The coercion is lossy and locale-naive:
// it is sufficient for relative ordering but must not be used to
// reconstruct exact values. Values with no numeric content coerce to 0.
func CoerceNumeric(value string) float64 {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return n
}

// CompareValues ranks a set of formatted values against one another and
// returns one tag per value. Fewer than two values yields an empty tag
// list; when every coerced value is equal, every tag is equal.
func CompareValues(values []string) []ComparisonTag {
	if len(values) < MinComparisonResults {
		return []ComparisonTag{}
	}

	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = CoerceNumeric(v)
	}

	min, max := nums[0], nums[0]
	for _, n := range nums[1:] {
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}

	tags := make([]ComparisonTag, len(nums))
	for i, n := range nums {
		switch {
		case max != min && n == max:
			tags[i] = TagHighest
		case max != min && n == min:
			tags[i] = TagLowest
		default:
			tags[i] = TagEqual
		}
	}
	return tags
}

// MetricSource selects which per-result metrics a comparison table is
// built from.
type MetricSource string

// Supported metric sources for comparison tables.
const (
	// SourceParameters builds rows from each result's input parameters.
	SourceParameters MetricSource = "parameters"

	// SourceSecondary builds rows from each result's secondary metrics.
	SourceSecondary MetricSource = "secondaryResults"
)

// ComparisonCell is one result's entry in a comparison row. Present is
// false when the result does not declare the row's metric; such cells
// render the placeholder and carry no tag.
type ComparisonCell struct {
	Value   string        `json:"value"`
	Unit    string        `json:"unit,omitempty"`
	Present bool          `json:"present"`
	Tag     ComparisonTag `json:"tag,omitempty"`
}

// ComparisonRow is one metric compared across every supplied result.
type ComparisonRow struct {
	Metric string           `json:"metric"`
	Cells  []ComparisonCell `json:"cells"`
}

// BuildComparisonTable computes the union of metric keys across the
// supplied results and produces one row per key, in first-seen order.
// A metric absent from a given result renders as a placeholder, not an
// error; tags are computed only over the subset of results that
// actually declare the metric.
func BuildComparisonTable(results []CalculationResult, source MetricSource) []ComparisonRow {
	type entry struct {
		value string
		unit  string
		ok    bool
	}

	var keys []string
	seen := make(map[string]bool)
	cells := make(map[string][]entry)

	record := func(idx int, key, value, unit string) {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
			cells[key] = make([]entry, len(results))
		}
		cells[key][idx] = entry{value: value, unit: unit, ok: true}
	}

	for i, r := range results {
		switch source {
		case SourceParameters:
			for _, name := range sortedKeys(r.InputParameters) {
				record(i, name, formatParameterValue(r.InputParameters[name]), "")
			}
		case SourceSecondary:
			for _, m := range r.Secondary {
				record(i, m.Label, m.Value, m.Unit)
			}
		}
	}

	rows := make([]ComparisonRow, 0, len(keys))
	for _, key := range keys {
		entries := cells[key]

		// Rank only the results that declare this metric.
		var declared []string
		for _, e := range entries {
			if e.ok {
				declared = append(declared, e.value)
			}
		}
		tags := CompareValues(declared)

		row := ComparisonRow{Metric: key, Cells: make([]ComparisonCell, len(entries))}
		tagIdx := 0
		for i, e := range entries {
			if !e.ok {
				row.Cells[i] = ComparisonCell{Value: Placeholder}
				continue
			}
			cell := ComparisonCell{Value: e.value, Unit: e.unit, Present: true}
			if len(tags) > 0 {
				cell.Tag = tags[tagIdx]
			}
			tagIdx++
			row.Cells[i] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

// CheckUnitCompatibility reports whether every result's primary-metric
// unit is identical. It gates whether a cross-result numeric comparison
// of primary metrics may be rendered at all: when units differ, the
// engine refuses to rank primary metrics rather than silently mixing
// units. Zero or one result is trivially compatible.
func CheckUnitCompatibility(results []CalculationResult) bool {
	if len(results) < 2 {
		return true
	}
	unit := results[0].Primary.Unit
	for _, r := range results[1:] {
		if r.Primary.Unit != unit {
			return false
		}
	}
	return true
}

// ComparePrimary ranks the primary metrics of the supplied results.
// It returns an error when the results' primary units are incompatible;
// comparison across differing units is refused, never approximated.
func ComparePrimary(results []CalculationResult) ([]ComparisonTag, error) {
	if !CheckUnitCompatibility(results) {
		return nil, fmt.Errorf("incompatible primary units: %s", primaryUnitList(results))
	}
	values := make([]string, len(results))
	for i, r := range results {
		values[i] = r.Primary.Value
	}
	return CompareValues(values), nil
}

// ComplianceSummary is one result's compliance judgment, passed through
// for display grouping.
type ComplianceSummary struct {
	ExecutionID  string           `json:"execution_id,omitempty"`
	TemplateName string           `json:"template_name"`
	Status       ComplianceStatus `json:"status"`
	Notes        []string         `json:"notes,omitempty"`
}

// AggregateCompliance groups the compliance judgments of the supplied
// results, one summary per result in input order. The engine never
// upgrades or downgrades a status it did not compute.
func AggregateCompliance(results []CalculationResult) []ComplianceSummary {
	summaries := make([]ComplianceSummary, len(results))
	for i, r := range results {
		summaries[i] = ComplianceSummary{
			ExecutionID:  r.ExecutionID,
			TemplateName: r.TemplateName,
			Status:       r.Compliance.Status,
			Notes:        r.Compliance.Notes,
		}
	}
	return summaries
}

func primaryUnitList(results []CalculationResult) string {
	units := make([]string, len(results))
	for i, r := range results {
		units[i] = r.Primary.Unit
	}
	return strings.Join(units, ", ")
}

// sortedKeys returns the map's keys in lexical order. Go map iteration
// is unordered, so parameter rows use lexical order for determinism.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatParameterValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
