package finance

import (
	"fmt"

	apperrors "prism/internal/errors"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest magnitude any stored amount may take.
var MaxAmount = decimal.RequireFromString("999999999.99")

var hundred = decimal.NewFromInt(100)

// ParseMoney parses a decimal string and validates it as an amount.
func ParseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s must be a decimal number", field))
	}
	return d, ValidateAmount(field, d)
}

// ValidateAmount checks that v fits a 2-place column within ±MaxAmount.
func ValidateAmount(field string, v decimal.Decimal) error {
	if v.Abs().GreaterThan(MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s cannot exceed 999,999,999.99", field))
	}
	if !v.Equal(v.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s cannot have more than 2 decimal places", field))
	}
	return nil
}

// ValidatePositive is ValidateAmount plus v > 0.
func ValidatePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s must be positive", field))
	}
	return ValidateAmount(field, v)
}

// ValidateNonNegative is ValidateAmount plus v >= 0.
func ValidateNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s cannot be negative", field))
	}
	return ValidateAmount(field, v)
}

// ValidateNonZero is ValidateAmount plus v != 0.
func ValidateNonZero(field string, v decimal.Decimal) error {
	if v.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("%s cannot be zero", field))
	}
	return ValidateAmount(field, v)
}

// Percentage returns part/whole*100 rounded to 2 places, or 0 when whole is zero.
func Percentage(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(hundred).DivRound(whole, 2).InexactFloat64()
}

// cappedPercentage is Percentage limited to 100.
func cappedPercentage(part, whole decimal.Decimal) float64 {
	return min(Percentage(part, whole), 100)
}
