// Package formulas provides the built-in construction calculation
// families that implement the ports.Formula interface. Each formula is
// a deterministic computation over a validated parameter map, selected
// by a template's formula kind.
package formulas

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Registered formula kinds shipped with the engine.
const (
	// KindElectricalLoad is the NEC 220 service load calculation.
	KindElectricalLoad = "electrical_load"

	// KindBeamSizing is the simply-supported steel beam sizing
	// calculation.
	KindBeamSizing = "beam_sizing"

	// KindConcreteVolume is the concrete slab volume and cost
	// calculation.
	KindConcreteVolume = "concrete_volume"
)

// Common errors returned by formula implementations.
var (
	// ErrEmptyFormulaName is returned when a formula is created with an
	// empty name.
	ErrEmptyFormulaName = errors.New("formula name cannot be empty")

	// ErrMissingParameter is returned when an expected parameter is
	// absent from the evaluated map.
	ErrMissingParameter = errors.New("required parameter missing")

	// ErrZeroDenominator is returned when a computation would divide by
	// zero.
	ErrZeroDenominator = errors.New("division by zero denominator")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// printer formats result values for display with English digit
// grouping, so 8450 renders as "8,450".
var printer = message.NewPrinter(language.English)

// formatValue renders v with digit grouping and a fixed number of
// fraction digits, matching the display convention of result metrics.
func formatValue(v float64, decimals int) string {
	return printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(decimals),
		number.MaxFractionDigits(decimals)))
}

// paramFloat extracts a numeric parameter, accepting the numeric
// representations that survive parameter validation.
func paramFloat(params map[string]any, name string) (float64, error) {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("parameter %s is not numeric: %q", name, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("parameter %s is not numeric", name)
	}
}

// paramFloatDefault extracts a numeric parameter, falling back to def
// when the parameter is absent.
func paramFloatDefault(params map[string]any, name string, def float64) (float64, error) {
	if raw, ok := params[name]; !ok || raw == nil {
		return def, nil
	}
	return paramFloat(params, name)
}
