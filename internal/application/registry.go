package application

import (
	"fmt"
	"sync"

	"github.com/fieldcalc/calc-engine/infrastructure/formulas"
	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.FormulaRegistry = (*DefaultFormulaRegistry)(nil)

// DefaultFormulaRegistry implements the FormulaRegistry interface as a
// factory keyed by formula kind. The built-in construction formula
// families are pre-registered; callers may register additional kinds at
// runtime.
type DefaultFormulaRegistry struct {
	// factories maps formula kinds to their factory functions.
	factories map[string]ports.FormulaFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultFormulaRegistry creates a formula registry with the
// standard formula kinds pre-registered: electrical_load, beam_sizing,
// and concrete_volume.
func NewDefaultFormulaRegistry() *DefaultFormulaRegistry {
	r := &DefaultFormulaRegistry{factories: make(map[string]ports.FormulaFactory)}
	r.registerBuiltinFactories()
	return r
}

// registerBuiltinFactories registers the formula families shipped with
// the engine.
func (r *DefaultFormulaRegistry) registerBuiltinFactories() {
	r.factories[formulas.KindElectricalLoad] = formulas.NewElectricalLoadFromConfig
	r.factories[formulas.KindBeamSizing] = formulas.NewBeamSizingFromConfig
	r.factories[formulas.KindConcreteVolume] = formulas.NewConcreteVolumeFromConfig
}

// CreateFormula instantiates the formula registered under kind with the
// given id and configuration. Unregistered kinds surface
// domain.ErrUnknownFormula.
func (r *DefaultFormulaRegistry) CreateFormula(kind, id string, config map[string]any) (ports.Formula, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFormula, kind)
	}
	if id == "" {
		return nil, fmt.Errorf("formula id cannot be empty")
	}
	if config == nil {
		config = make(map[string]any)
	}

	formula, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create formula %s of kind %s: %w", id, kind, err)
	}
	return formula, nil
}

// RegisterFormulaFactory registers a factory for a formula kind,
// replacing any existing registration for that kind.
func (r *DefaultFormulaRegistry) RegisterFormulaFactory(kind string, factory ports.FormulaFactory) error {
	if kind == "" {
		return fmt.Errorf("formula kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}

// SupportedKinds returns every registered formula kind.
func (r *DefaultFormulaRegistry) SupportedKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	return kinds
}
