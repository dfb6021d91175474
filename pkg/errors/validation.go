package errors

import (
	"math"
	"unicode"
)

const maxNameLength = 256

// ValidateName checks a good or recipe name coming from untrusted input.
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s name cannot be empty", kind)
	}
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "%s name too long (max %d characters)", kind, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s name contains control characters", kind)
		}
	}
	return nil
}

// ValidateAmount checks a goal amount: finite and not negative.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return New(ErrCodeInvalidGoal, "amount must be a finite number, got %v", amount)
	}
	if amount < 0 {
		return New(ErrCodeInvalidGoal, "amount must not be negative, got %v", amount)
	}
	return nil
}
