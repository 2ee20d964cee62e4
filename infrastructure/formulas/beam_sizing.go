package formulas

import (
	"context"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/fieldcalc/calc-engine/internal/domain"
	"github.com/fieldcalc/calc-engine/internal/ports"
)

var _ ports.Formula = (*BeamSizingFormula)(nil)

// BeamSizingFormula sizes a simply supported steel beam under a uniform
// load. It computes the maximum bending moment (wL²/8), the section
// modulus required at the allowable bending stress, and the moment of
// inertia required to keep deflection within the configured span ratio.
// The headline output is the required section modulus.
//
// Expected parameters: span_ft (required), uniform_load_plf (required),
// yield_strength_psi, deflection_ratio.
type BeamSizingFormula struct {
	// name is the unique identifier for this formula instance.
	name string
	// config contains the validated configuration parameters.
	config BeamSizingConfig
}

// BeamSizingConfig controls the allowable-stress constants of the
// sizing calculation.
type BeamSizingConfig struct {
	// BendingFactor is the fraction of yield strength allowed in
	// bending (0.66 Fy for compact sections under ASD).
	BendingFactor float64 `yaml:"bending_factor" json:"bending_factor" validate:"gt=0,lte=1"`

	// ElasticModulusPSI is Young's modulus for the beam material
	// (29,000,000 psi for structural steel).
	ElasticModulusPSI float64 `yaml:"elastic_modulus_psi" json:"elastic_modulus_psi" validate:"gt=0"`

	// DefaultYieldPSI is assumed when the yield_strength_psi parameter
	// is omitted (50 ksi for A992 shapes).
	DefaultYieldPSI float64 `yaml:"default_yield_psi" json:"default_yield_psi" validate:"gt=0"`

	// DefaultDeflectionRatio is the span/deflection limit assumed when
	// the deflection_ratio parameter is omitted (L/240 for total load).
	DefaultDeflectionRatio float64 `yaml:"default_deflection_ratio" json:"default_deflection_ratio" validate:"gt=0"`

	// LongSpanWarningFt is the span beyond which the result carries an
	// engineering-review warning.
	LongSpanWarningFt float64 `yaml:"long_span_warning_ft" json:"long_span_warning_ft" validate:"gt=0"`
}

// DefaultBeamSizingConfig returns allowable-stress constants for A992
// steel with an L/240 total-load deflection limit.
func DefaultBeamSizingConfig() BeamSizingConfig {
	return BeamSizingConfig{
		BendingFactor:          0.66,
		ElasticModulusPSI:      29_000_000,
		DefaultYieldPSI:        50_000,
		DefaultDeflectionRatio: 240,
		LongSpanWarningFt:      40,
	}
}

// NewBeamSizingFormula creates a BeamSizingFormula with a validated
// configuration.
func NewBeamSizingFormula(name string, config BeamSizingConfig) (*BeamSizingFormula, error) {
	if name == "" {
		return nil, ErrEmptyFormulaName
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &BeamSizingFormula{name: name, config: config}, nil
}

// Name returns the unique identifier for this formula instance.
func (f *BeamSizingFormula) Name() string { return f.name }

// Evaluate computes the required beam section properties for the
// supplied parameters. Zero span or yield strength cannot produce a
// section and fail the computation naming the offending parameter.
func (f *BeamSizingFormula) Evaluate(ctx context.Context, params map[string]any) (domain.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawOutput{}, err
	}

	spanFt, err := paramFloat(params, "span_ft")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "span_ft")
	}
	loadPLF, err := paramFloat(params, "uniform_load_plf")
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "uniform_load_plf")
	}
	yieldPSI, err := paramFloatDefault(params, "yield_strength_psi", f.config.DefaultYieldPSI)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "yield_strength_psi")
	}
	deflectionRatio, err := paramFloatDefault(params, "deflection_ratio", f.config.DefaultDeflectionRatio)
	if err != nil {
		return domain.RawOutput{}, domain.NewComputationError("", err, "deflection_ratio")
	}

	if spanFt == 0 {
		return domain.RawOutput{}, domain.NewComputationError("", ErrZeroDenominator, "span_ft")
	}
	if yieldPSI == 0 {
		return domain.RawOutput{}, domain.NewComputationError("", ErrZeroDenominator, "yield_strength_psi")
	}
	if deflectionRatio == 0 {
		return domain.RawOutput{}, domain.NewComputationError("", ErrZeroDenominator, "deflection_ratio")
	}

	// Maximum moment for a uniform load on a simple span: wL²/8 (lb-ft).
	momentLbFt := loadPLF * spanFt * spanFt / 8

	// Required section modulus at the allowable bending stress (in³).
	allowableStress := f.config.BendingFactor * yieldPSI
	sectionModulus := momentLbFt * 12 / allowableStress

	// Required moment of inertia for the deflection limit (in⁴):
	// Δ_allow = L/ratio, Δ = 5wL⁴/(384EI).
	spanIn := spanFt * 12
	allowableDeflection := spanIn / deflectionRatio
	loadPLI := loadPLF / 12
	momentOfInertia := 5 * loadPLI * math.Pow(spanIn, 4) /
		(384 * f.config.ElasticModulusPSI * allowableDeflection)

	compliance := domain.Compliance{Status: domain.Compliant}
	switch {
	case loadPLF <= 0:
		compliance = domain.Compliance{
			Status: domain.NonCompliant,
			Notes:  []string{"uniform load must be positive for a meaningful beam size"},
		}
	case spanFt > f.config.LongSpanWarningFt:
		compliance = domain.Compliance{
			Status: domain.Warning,
			Notes: []string{fmt.Sprintf(
				"span exceeds %s ft; have the sizing verified by a structural engineer",
				formatValue(f.config.LongSpanWarningFt, 0))},
		}
	}

	return domain.RawOutput{
		Primary: domain.Metric{
			Label: "Required Section Modulus",
			Value: formatValue(sectionModulus, 1),
			Unit:  "in³",
		},
		Secondary: []domain.Metric{
			{Label: "Maximum Moment", Value: formatValue(momentLbFt, 0), Unit: "lb-ft"},
			{Label: "Required Moment of Inertia", Value: formatValue(momentOfInertia, 1), Unit: "in⁴"},
			{Label: "Allowable Deflection", Value: formatValue(allowableDeflection, 2), Unit: "in"},
		},
		Compliance: compliance,
	}, nil
}

// Validate verifies the formula's configuration.
func (f *BeamSizingFormula) Validate() error {
	if err := validate.Struct(f.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration into the
// formula's constants, validating before replacing the current
// settings. The configuration is unchanged on error.
func (f *BeamSizingFormula) UnmarshalParameters(params yaml.Node) error {
	var config BeamSizingConfig
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	f.config = config
	return nil
}

// NewBeamSizingFromConfig creates a BeamSizingFormula from a
// configuration map. This is the boundary adapter used by the formula
// registry.
func NewBeamSizingFromConfig(id string, config map[string]any) (ports.Formula, error) {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	cfg := DefaultBeamSizingConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return NewBeamSizingFormula(id, cfg)
}
