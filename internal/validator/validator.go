package validator

import (
	"fmt"
	"strings"
)

// Recognized measure types. The stored form is always uppercase; inbound
// filters match case-insensitively.
const (
	MeasureTypeWater = "WATER"
	MeasureTypeGas   = "GAS"
)

// ValidationResult holds validation outcome
type ValidationResult struct {
	IsValid bool
	Reason  string
}

// Validator handles request-level validation
type Validator struct {
	measureTypes []string
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		measureTypes: []string{MeasureTypeWater, MeasureTypeGas},
	}
}

// NormalizeMeasureType folds a raw measure type to its stored uppercase
// form. An unrecognized type is invalid; an empty string means "no filter"
// and is valid.
func (v *Validator) NormalizeMeasureType(raw string) (string, ValidationResult) {
	if raw == "" {
		return "", ValidationResult{IsValid: true}
	}

	normalized := strings.ToUpper(raw)
	for _, t := range v.measureTypes {
		if normalized == t {
			return normalized, ValidationResult{IsValid: true}
		}
	}

	return "", ValidationResult{
		IsValid: false,
		Reason:  fmt.Sprintf("unrecognized measure type %q", raw),
	}
}

// ValidateConfirmInput checks the decoded confirm request body. Fields are
// pointers so a missing field is distinguishable from a zero value; wrong
// JSON types never get this far because decoding rejects them.
func (v *Validator) ValidateConfirmInput(measureUUID *string, confirmedValue *float64) ValidationResult {
	if measureUUID == nil || *measureUUID == "" {
		return ValidationResult{IsValid: false, Reason: "measure_uuid must be a non-empty string"}
	}
	if confirmedValue == nil {
		return ValidationResult{IsValid: false, Reason: "confirmed_value must be a number"}
	}
	return ValidationResult{IsValid: true}
}
