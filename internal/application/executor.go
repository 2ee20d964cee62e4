package application

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

// FormulaExecutor invokes a template's registered computation against a
// validated parameter map and packages the raw output into a
// CalculationResult. Callers must run ParameterValidator first; the
// executor assumes its inputs passed validation.
type FormulaExecutor struct {
	registry ports.FormulaRegistry

	// now is injectable for deterministic timestamps in tests.
	now func() time.Time
}

// NewFormulaExecutor creates a FormulaExecutor backed by the given
// formula registry.
func NewFormulaExecutor(registry ports.FormulaRegistry) (*FormulaExecutor, error) {
	if registry == nil {
		return nil, fmt.Errorf("formula registry cannot be nil")
	}
	return &FormulaExecutor{registry: registry, now: time.Now}, nil
}

// Execute resolves the template's formula, evaluates it, and returns a
// fully populated CalculationResult with the input parameters attached
// for audit and comparison. When the computation cannot produce a
// result for the given inputs, Execute fails with a
// *domain.ComputationError and returns no partial result.
func (e *FormulaExecutor) Execute(ctx context.Context, template *domain.CalculationTemplate, values map[string]any) (*domain.CalculationResult, error) {
	formula, err := e.registry.CreateFormula(template.FormulaKind, template.ID, template.FormulaConfig)
	if err != nil {
		return nil, fmt.Errorf("resolving formula for template %s: %w", template.ID, err)
	}

	out, err := formula.Evaluate(ctx, values)
	if err != nil {
		if cerr, ok := err.(*domain.ComputationError); ok {
			// Formulas report offending parameters without knowing the
			// template; stamp the id here.
			cerr.TemplateID = template.ID
			return nil, cerr
		}
		return nil, domain.NewComputationError(template.ID, err)
	}

	if !out.Compliance.Status.Valid() {
		return nil, domain.NewComputationError(template.ID,
			fmt.Errorf("formula %s produced invalid compliance status %q", formula.Name(), out.Compliance.Status))
	}

	return &domain.CalculationResult{
		TemplateID:      template.ID,
		TemplateName:    template.Name,
		Primary:         out.Primary,
		Secondary:       out.Secondary,
		Compliance:      out.Compliance,
		InputParameters: values,
		CreatedAt:       e.now(),
	}, nil
}
