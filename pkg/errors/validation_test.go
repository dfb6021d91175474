package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "iron-plate", false},
		{"spaces", "Iron Plate", false},
		{"unicode", "Eisenplatte ü", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 300), true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("good", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{0, false},
		{10, false},
		{1e-9, false},
		{-1, true},
		{math.NaN(), true},
		{math.Inf(1), true},
	}

	for _, tt := range tests {
		err := ValidateAmount(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAmount(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidGoal) {
			t.Errorf("ValidateAmount(%v) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidGoal)
		}
	}
}
