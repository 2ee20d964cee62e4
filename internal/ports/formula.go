package ports

import (
	"context"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

// Formula is a registered computation bound to a template's parameter
// names. The engine treats it as a black box with one contract: given a
// map of validated parameter values, produce a RawOutput. Formulas must
// be stateless and safe for concurrent use.
type Formula interface {
	// Name returns the unique identifier of this formula instance.
	// The name is used for logging, debugging, and traceability.
	Name() string

	// Evaluate runs the computation against the validated parameter
	// map and returns the raw primary/secondary/compliance output.
	// Evaluate must never return a partially populated output: when the
	// computation cannot produce a result for the given inputs (for
	// example a zero denominator that validation could not catch), it
	// returns an error naming the offending parameter where possible.
	//
	// The context allows cancellation and deadline propagation.
	Evaluate(ctx context.Context, params map[string]any) (domain.RawOutput, error)

	// Validate checks that the formula is properly configured and ready
	// for evaluation. It is typically called at registration time.
	Validate() error
}

// FormulaFactory creates a Formula instance from a configuration map.
// The id parameter becomes the formula's name.
type FormulaFactory func(id string, config map[string]any) (Formula, error)

// FormulaRegistry resolves formula kinds to configured Formula
// instances. Registries must be safe for concurrent use.
type FormulaRegistry interface {
	// CreateFormula instantiates the formula registered under kind with
	// the given id and configuration. An unregistered kind surfaces
	// domain.ErrUnknownFormula.
	CreateFormula(kind, id string, config map[string]any) (Formula, error)

	// RegisterFormulaFactory registers a factory for a formula kind,
	// replacing any existing registration for that kind.
	RegisterFormulaFactory(kind string, factory FormulaFactory) error

	// SupportedKinds returns every registered formula kind.
	SupportedKinds() []string
}
