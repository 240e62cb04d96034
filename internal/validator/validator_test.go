package validator_test

import (
	"testing"

	"github.com/aquagas/utility-readings-service/internal/validator"
)

func TestNormalizeMeasureType_Uppercase(t *testing.T) {
	v := validator.NewValidator()

	normalized, result := v.NormalizeMeasureType("WATER")

	if !result.IsValid {
		t.Errorf("Expected valid result, got invalid: %s", result.Reason)
	}
	if normalized != "WATER" {
		t.Errorf("Expected WATER, got %q", normalized)
	}
}

func TestNormalizeMeasureType_CaseInsensitive(t *testing.T) {
	v := validator.NewValidator()

	for _, raw := range []string{"water", "Water", "gAs", "gas"} {
		_, result := v.NormalizeMeasureType(raw)
		if !result.IsValid {
			t.Errorf("Expected %q to be valid, got invalid: %s", raw, result.Reason)
		}
	}

	normalized, _ := v.NormalizeMeasureType("water")
	if normalized != "WATER" {
		t.Errorf("Expected water to normalize to WATER, got %q", normalized)
	}

	normalized, _ = v.NormalizeMeasureType("gas")
	if normalized != "GAS" {
		t.Errorf("Expected gas to normalize to GAS, got %q", normalized)
	}
}

func TestNormalizeMeasureType_Empty(t *testing.T) {
	v := validator.NewValidator()

	normalized, result := v.NormalizeMeasureType("")

	if !result.IsValid {
		t.Errorf("Expected empty type to be valid (no filter), got invalid: %s", result.Reason)
	}
	if normalized != "" {
		t.Errorf("Expected empty normalized type, got %q", normalized)
	}
}

func TestNormalizeMeasureType_Unrecognized(t *testing.T) {
	v := validator.NewValidator()

	_, result := v.NormalizeMeasureType("electric")

	if result.IsValid {
		t.Error("Expected invalid result for unrecognized measure type")
	}
	if result.Reason == "" {
		t.Error("Expected a reason for the invalid result")
	}
}

func TestValidateConfirmInput_Valid(t *testing.T) {
	v := validator.NewValidator()

	measureUUID := "7d8f3a52-9c1e-4b6a-8f2d-3e5c7a9b1d4f"
	confirmedValue := 1205.5

	result := v.ValidateConfirmInput(&measureUUID, &confirmedValue)

	if !result.IsValid {
		t.Errorf("Expected valid result, got invalid: %s", result.Reason)
	}
}

func TestValidateConfirmInput_ZeroValue(t *testing.T) {
	v := validator.NewValidator()

	measureUUID := "7d8f3a52-9c1e-4b6a-8f2d-3e5c7a9b1d4f"
	confirmedValue := 0.0

	result := v.ValidateConfirmInput(&measureUUID, &confirmedValue)

	if !result.IsValid {
		t.Errorf("Expected zero to be a valid confirmed_value, got invalid: %s", result.Reason)
	}
}

func TestValidateConfirmInput_MissingUUID(t *testing.T) {
	v := validator.NewValidator()

	confirmedValue := 1205.5

	result := v.ValidateConfirmInput(nil, &confirmedValue)

	if result.IsValid {
		t.Error("Expected invalid result for missing measure_uuid")
	}
}

func TestValidateConfirmInput_EmptyUUID(t *testing.T) {
	v := validator.NewValidator()

	measureUUID := ""
	confirmedValue := 1205.5

	result := v.ValidateConfirmInput(&measureUUID, &confirmedValue)

	if result.IsValid {
		t.Error("Expected invalid result for empty measure_uuid")
	}
}

func TestValidateConfirmInput_MissingValue(t *testing.T) {
	v := validator.NewValidator()

	measureUUID := "7d8f3a52-9c1e-4b6a-8f2d-3e5c7a9b1d4f"

	result := v.ValidateConfirmInput(&measureUUID, nil)

	if result.IsValid {
		t.Error("Expected invalid result for missing confirmed_value")
	}
}
