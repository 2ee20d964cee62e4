package domain

import (
	"time"
)

// ComplianceStatus is the three-valued judgment a formula attaches to
// its result. The comparison layer never infers or rewrites it.
type ComplianceStatus string

// The exactly three compliance statuses a result may carry.
const (
	Compliant    ComplianceStatus = "compliant"
	Warning      ComplianceStatus = "warning"
	NonCompliant ComplianceStatus = "non-compliant"
)

// Valid reports whether s is one of the three defined statuses.
func (s ComplianceStatus) Valid() bool {
	switch s {
	case Compliant, Warning, NonCompliant:
		return true
	}
	return false
}

// Metric is a single labeled output value. Value is a formatted display
// string (e.g. "8,450"); Unit may be empty for dimensionless metrics.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Compliance carries a formula's regulatory judgment and its supporting
// notes.
type Compliance struct {
	Status ComplianceStatus `json:"status"`
	Notes  []string         `json:"notes,omitempty"`
}

// RawOutput is the shape a registered computation produces: a headline
// metric, supporting metrics, and the compliance judgment. The executor
// packages it into a CalculationResult.
type RawOutput struct {
	Primary    Metric     `json:"primary"`
	Secondary  []Metric   `json:"secondary,omitempty"`
	Compliance Compliance `json:"compliance"`
}

// CalculationResult is one concrete run of a template against a
// validated parameter map. Results are created in memory by the
// executor, optionally enriched with an execution ID after persistence,
// and read-only thereafter; new executions produce new instances.
type CalculationResult struct {
	// ExecutionID identifies the persisted execution record. Empty for
	// results that have not been persisted yet.
	ExecutionID string `json:"execution_id,omitempty"`

	// TemplateID and TemplateName identify the template that produced
	// this result.
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`

	// UserID and ProjectID attribute the execution, when known.
	UserID    string `json:"user_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`

	// Primary is the headline output. Its unit is immutable once
	// computed.
	Primary Metric `json:"primary"`

	// Secondary lists supporting metrics in the order the formula
	// produced them.
	Secondary []Metric `json:"secondary,omitempty"`

	// Compliance is the formula's judgment for this run.
	Compliance Compliance `json:"compliance"`

	// InputParameters is the validated parameter map this result was
	// computed from, kept for audit and comparison.
	InputParameters map[string]any `json:"input_parameters"`

	// SavedName and SavedNotes are optional user-supplied metadata
	// attached when a result is explicitly saved.
	SavedName  string     `json:"saved_name,omitempty"`
	SavedNotes string     `json:"saved_notes,omitempty"`
	SavedAt    *time.Time `json:"saved_at,omitempty"`

	// CreatedAt records when the computation ran.
	CreatedAt time.Time `json:"created_at"`
}

// WithExecutionID returns a copy of the result carrying the persisted
// execution ID. The receiver is not modified.
func (r CalculationResult) WithExecutionID(id string) CalculationResult {
	r.ExecutionID = id
	return r
}
