// Package application coordinates template lookup, parameter
// validation, formula execution, and the repository side effects that
// follow a successful execution.
package application

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fieldcalc/calc-engine/internal/domain"
)

// ParameterValidator validates a parameter-value map against a
// template's declared schema. It is a pure function of its inputs:
// no I/O, no side effects, errors returned rather than thrown, so the
// caller decides whether to abort or surface partial feedback.
type ParameterValidator struct{}

// NewParameterValidator creates a ParameterValidator.
func NewParameterValidator() *ParameterValidator { return &ParameterValidator{} }

// Validate checks values against the template's parameter schema and
// returns nil when every declared rule passes. Failures come back as a
// *domain.ValidationError whose fields follow the template's parameter
// declaration order and are keyed by each parameter's label. A template
// with zero parameters is always valid.
func (v *ParameterValidator) Validate(template *domain.CalculationTemplate, values map[string]any) *domain.ValidationError {
	verr := &domain.ValidationError{}

	for _, def := range template.Parameters {
		value, supplied := values[def.Name]
		if isEmptyValue(value) {
			supplied = false
		}

		if !supplied {
			if def.Required {
				verr.Add(def.Label, fmt.Sprintf("%s is required", def.Label))
			}
			continue
		}

		switch def.Type {
		case domain.ParameterNumeric:
			v.validateNumeric(def, value, verr)
		case domain.ParameterEnum:
			v.validateEnum(def, value, verr)
		case domain.ParameterBoolean:
			v.validateBoolean(def, value, verr)
		case domain.ParameterText:
			// Any non-empty value is acceptable text.
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (v *ParameterValidator) validateNumeric(def domain.ParameterDefinition, value any, verr *domain.ValidationError) {
	n, ok := toFloat(value)
	if !ok {
		verr.Add(def.Label, fmt.Sprintf("%s must be a number", def.Label))
		return
	}
	if def.Min != nil && n < *def.Min {
		verr.Add(def.Label, fmt.Sprintf("%s must be at least %s", def.Label, formatBound(*def.Min)))
		return
	}
	if def.Max != nil && n > *def.Max {
		verr.Add(def.Label, fmt.Sprintf("%s must be at most %s", def.Label, formatBound(*def.Max)))
	}
}

func (v *ParameterValidator) validateEnum(def domain.ParameterDefinition, value any, verr *domain.ValidationError) {
	s := fmt.Sprintf("%v", value)
	if !slices.Contains(def.AllowedValues, s) {
		verr.Add(def.Label, fmt.Sprintf("%s must be one of: %s", def.Label, strings.Join(def.AllowedValues, ", ")))
	}
}

func (v *ParameterValidator) validateBoolean(def domain.ParameterDefinition, value any, verr *domain.ValidationError) {
	switch t := value.(type) {
	case bool:
	case string:
		if _, err := strconv.ParseBool(t); err != nil {
			verr.Add(def.Label, fmt.Sprintf("%s must be true or false", def.Label))
		}
	default:
		verr.Add(def.Label, fmt.Sprintf("%s must be true or false", def.Label))
	}
}

// isEmptyValue treats nil and blank strings as absent; a zero number is
// a present value.
func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// toFloat accepts the numeric representations that reach the engine
// from typed callers and from decoded form/JSON payloads.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func formatBound(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}
