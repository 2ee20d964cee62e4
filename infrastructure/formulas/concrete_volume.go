package formulas

import (
	"context"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.Formula = (*ConcreteVolumeFormula)(nil)

// ConcreteVolumeFormula computes the concrete volume for a rectangular
// slab, the order quantity after waste, the estimated material cost,
// and the truckloads needed. The headline output is the order volume in
// cubic yards.
//
// Expected parameters: length_ft (required), width_ft (required),
// thickness_in (required), waste_factor_pct, price_per_cubic_yard.
type ConcreteVolumeFormula struct {
	// name is the unique identifier for this formula instance.
	name string
	// config contains the validated configuration parameters.
	config ConcreteVolumeConfig
}

// ConcreteVolumeConfig controls ordering constants for the slab
// calculation.
type ConcreteVolumeConfig struct {
	// DefaultWastePct is the waste allowance applied when the
	// waste_factor_pct parameter is omitted.
	DefaultWastePct float64 `yaml:"default_waste_pct" json:"default_waste_pct" validate:"min=0,max=100"`

	// TruckCapacityYd3 is the volume one mixer truck delivers.
	TruckCapacityYd3 float64 `yaml:"truck_capacity_yd3" json:"truck_capacity_yd3" validate:"gt=0"`

	// MinThicknessIn is the slab thickness below which the result
	// carries a warning.
	MinThicknessIn float64 `yaml:"min_thickness_in" json:"min_thickness_in" validate:"gt=0"`
}

// DefaultConcreteVolumeConfig returns ordering constants typical for
// residential slab work.
func DefaultConcreteVolumeConfig() ConcreteVolumeConfig {
	return ConcreteVolumeConfig{
		DefaultWastePct:  10,
		TruckCapacityYd3: 10,
		MinThicknessIn:   4,
	}
}

// NewConcreteVolumeFormula creates a ConcreteVolumeFormula with a
// validated configuration.
func NewConcreteVolumeFormula(name string, config ConcreteVolumeConfig) (*ConcreteVolumeFormula, error) {
	if name == "" {
		return nil, ErrEmptyFormulaName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConcreteVolumeFormula{name: name, config: config}, nil
}

// Name returns the unique identifier for this formula instance.
func (f *ConcreteVolumeFormula) Name() string { return f.name }

// Evaluate computes the slab volume and ordering quantities for the
// supplied parameters.
func (f *ConcreteVolumeFormula) Evaluate(ctx context.Context, params map[string]any) (domain.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawOutput{}, err
	}

	lengthFt, err := paramFloat(params, "length_ft")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "length_ft")
	}
	widthFt, err := paramFloat(params, "width_ft")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "width_ft")
	}
	thicknessIn, err := paramFloat(params, "thickness_in")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "thickness_in")
	}
	wastePct, err := paramFloatDefault(params, "waste_factor_pct", f.config.DefaultWastePct)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "waste_factor_pct")
	}
	pricePerYd, err := paramFloatDefault(params, "price_per_cubic_yard", 0)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "price_per_cubic_yard")
	}

	volumeFt3 := lengthFt * widthFt * (thicknessIn / 12)
	volumeYd3 := volumeFt3 / 27
	orderYd3 := volumeYd3 * (1 + wastePct/100)
	truckloads := math.Ceil(orderYd3 / f.config.TruckCapacityYd3)

	if math.IsNaN(orderYd3) || math.IsInf(orderYd3, 0) {
		return domain.RawOutput{}, domain.NewComputationError("",
			fmt.Errorf("slab dimensions produce a non-finite volume"),
			"length_ft", "width_ft", "thickness_in")
	}

	compliance := domain.Compliance{Status: domain.Compliant}
	if thicknessIn < f.config.MinThicknessIn {
		compliance = domain.Compliance{
			Status: domain.Warning,
			Notes: []string{fmt.Sprintf(
				"slab thickness is below the typical %s in minimum",
				formatValue(f.config.MinThicknessIn, 0))},
		}
	}

	secondary := []domain.Metric{
		{Label: "Net Volume", Value: formatValue(volumeYd3, 2), Unit: "yd³"},
		{Label: "Slab Volume", Value: formatValue(volumeFt3, 1), Unit: "ft³"},
		{Label: "Truckloads", Value: formatValue(truckloads, 0)},
	}
	if pricePerYd > 0 {
		secondary = append(secondary, domain.Metric{
			Label: "Estimated Material Cost",
			Value: formatValue(orderYd3*pricePerYd, 2),
			Unit:  "USD",
		})
	}

	return domain.RawOutput{
		Primary: domain.Metric{
			Label: "Concrete to Order",
			Value: formatValue(orderYd3, 2),
			Unit:  "yd³",
		},
		Secondary:  secondary,
		Compliance: compliance,
	}, nil
}

// Validate verifies the formula's configuration.
func (f *ConcreteVolumeFormula) Validate() error {
	if err := validate.Struct(f.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the
// formula's constants, validating before replacing the current
// settings. The configuration is unchanged on error.
func (f *ConcreteVolumeFormula) UnmarshalParameters(params yaml.Node) error {
	var config ConcreteVolumeConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	f.config = config
	return nil
}

// NewConcreteVolumeFromConfig creates a ConcreteVolumeFormula from a
// configuration map. This is the boundary adapter used by the formula
// registry.
func NewConcreteVolumeFromConfig(id string, config map[string]any) (ports.Formula, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	cfg := DefaultConcreteVolumeConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return NewConcreteVolumeFormula(id, cfg)
}
