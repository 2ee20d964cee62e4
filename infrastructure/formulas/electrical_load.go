package formulas

import (
	"context"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.Formula = (*ElectricalLoadFormula)(nil)

// standardServiceSizes are the standard ampacities a recommended
// service is rounded up to.
var standardServiceSizes = []float64{100, 125, 150, 200, 300, 400}

// ElectricalLoadFormula computes a dwelling service load following the
// NEC 220 standard method: general lighting at a fixed VA per square
// foot, small-appliance and laundry circuits at a fixed VA each, a
// demand factor applied to the load above the breakpoint, and fixed
// appliances added at full value. The headline output is the demand
// load in watts; supporting metrics cover the connected load, required
// ampacity, and the recommended standard service size.
//
// Expected parameters: floor_area (required), small_appliance_circuits,
// laundry_circuits, fixed_appliances_va, voltage.
type ElectricalLoadFormula struct {
	// name is the unique identifier for this formula instance.
	name string
	// config contains the validated configuration parameters.
	config ElectricalLoadConfig
}

// ElectricalLoadConfig controls the constants of the NEC 220 standard
// method. Configuration is immutable after formula creation.
type ElectricalLoadConfig struct {
	// VAPerSquareFoot is the general lighting allowance (NEC Table
	// 220.12; 3 VA/sq ft for dwellings).
	VAPerSquareFoot float64 `yaml:"va_per_square_foot" json:"va_per_square_foot" validate:"gt=0"`

	// CircuitVA is the load assigned to each small-appliance and
	// laundry circuit (NEC 220.52).
	CircuitVA float64 `yaml:"circuit_va" json:"circuit_va" validate:"gt=0"`

	// DemandBreakpointVA is the portion of the connected load taken at
	// 100% before the demand factor applies (NEC Table 220.42).
	DemandBreakpointVA float64 `yaml:"demand_breakpoint_va" json:"demand_breakpoint_va" validate:"min=0"`

	// DemandFactor is applied to the connected load above the
	// breakpoint.
	DemandFactor float64 `yaml:"demand_factor" json:"demand_factor" validate:"gt=0,lte=1"`

	// DefaultVoltage is assumed when the voltage parameter is omitted.
	DefaultVoltage float64 `yaml:"default_voltage" json:"default_voltage" validate:"gt=0"`
}

// DefaultElectricalLoadConfig returns the NEC 220 standard-method
// constants for dwelling units.
func DefaultElectricalLoadConfig() ElectricalLoadConfig {
	return ElectricalLoadConfig{
		VAPerSquareFoot:    3,
		CircuitVA:          1500,
		DemandBreakpointVA: 3000,
		DemandFactor:       0.35,
		DefaultVoltage:     240,
	}
}

// NewElectricalLoadFormula creates an ElectricalLoadFormula with a
// validated configuration.
func NewElectricalLoadFormula(name string, config ElectricalLoadConfig) (*ElectricalLoadFormula, error) {
	if name == "" {
		return nil, ErrEmptyFormulaName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ElectricalLoadFormula{name: name, config: config}, nil
}

// Name returns the unique identifier for this formula instance.
func (f *ElectricalLoadFormula) Name() string { return f.name }

// Evaluate computes the service load for the supplied parameters.
// A zero voltage cannot yield an ampacity and fails the computation
// naming the offending parameter.
func (f *ElectricalLoadFormula) Evaluate(ctx context.Context, params map[string]any) (domain.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawOutput{}, err
	}

	floorArea, err := paramFloat(params, "floor_area")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "floor_area")
	}
	applianceCircuits, err := paramFloatDefault(params, "small_appliance_circuits", 2)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "small_appliance_circuits")
	}
	laundryCircuits, err := paramFloatDefault(params, "laundry_circuits", 1)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "laundry_circuits")
	}
	fixedAppliances, err := paramFloatDefault(params, "fixed_appliances_va", 0)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "fixed_appliances_va")
	}
	voltage, err := paramFloatDefault(params, "voltage", f.config.DefaultVoltage)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "voltage")
	}
	if voltage == 0 {
		return domain.RawOutput{}, domain.NewComputationError("", ErrZeroDenominator, "voltage")
	}

	lightingLoad := floorArea * f.config.VAPerSquareFoot
	circuitLoad := (applianceCircuits + laundryCircuits) * f.config.CircuitVA
	connectedLoad := lightingLoad + circuitLoad

	demandLoad := connectedLoad
	if connectedLoad > f.config.DemandBreakpointVA {
		demandLoad = f.config.DemandBreakpointVA +
			(connectedLoad-f.config.DemandBreakpointVA)*f.config.DemandFactor
	}
	demandLoad += fixedAppliances

	amps := demandLoad / voltage
	serviceSize, fits := recommendServiceSize(amps)

	compliance := domain.Compliance{Status: domain.Compliant}
	if !fits {
		compliance = domain.Compliance{
			Status: domain.Warning,
			Notes: []string{fmt.Sprintf(
				"required ampacity %s A exceeds the largest standard service; an engineered service design is required",
				formatValue(amps, 1))},
		}
	}

	return domain.RawOutput{
		Primary: domain.Metric{
			Label: "Calculated Service Load",
			Value: formatValue(demandLoad, 0),
			Unit:  "W",
		},
		Secondary: []domain.Metric{
			{Label: "General Lighting Load", Value: formatValue(lightingLoad, 0), Unit: "VA"},
			{Label: "Connected Load", Value: formatValue(connectedLoad, 0), Unit: "VA"},
			{Label: "Required Ampacity", Value: formatValue(amps, 1), Unit: "A"},
			{Label: "Recommended Service Size", Value: formatValue(serviceSize, 0), Unit: "A"},
		},
		Compliance: compliance,
	}, nil
}

// Validate verifies the formula's configuration.
func (f *ElectricalLoadFormula) Validate() error {
	if err := validate.Struct(f.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the
// formula's constants, validating before replacing the current
// settings. The configuration is unchanged on error.
func (f *ElectricalLoadFormula) UnmarshalParameters(params yaml.Node) error {
	var config ElectricalLoadConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	f.config = config
	return nil
}

// NewElectricalLoadFromConfig creates an ElectricalLoadFormula from a
// configuration map. This is the boundary adapter used by the formula
// registry.
func NewElectricalLoadFromConfig(id string, config map[string]any) (ports.Formula, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	// Start with defaults, then overlay user config.
	cfg := DefaultElectricalLoadConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return NewElectricalLoadFormula(id, cfg)
}

// recommendServiceSize rounds the required ampacity up to the next
// standard service size. The second return is false when the ampacity
// exceeds the largest standard size.
func recommendServiceSize(amps float64) (float64, bool) {
	for _, size := range standardServiceSizes {
		if amps <= size {
			return size, true
		}
	}
	largest := standardServiceSizes[len(standardServiceSizes)-1]
	return math.Ceil(amps/100) * 100, largest >= amps
}
