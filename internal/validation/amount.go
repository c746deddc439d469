package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// amounts are stored as NUMERIC(14,2)
	maxIntegerDigits = 12
	maxScale         = 2
	// exponents below this cannot be rounded cheaply and never hold a valid amount
	minExponent = -20
)

// Amount reports whether amount fits into a stored money column. It inspects the digit count and
// exponent before rounding, so huge exponents are rejected without being expanded.
func Amount(field string, amount decimal.Decimal) error {
	exp := int(amount.Exponent())
	if exp < minExponent {
		return New(field, fmt.Sprintf("must have at most %d decimal places", maxScale))
	}
	if amount.NumDigits()+exp > maxIntegerDigits {
		return New(field, fmt.Sprintf("must have at most %d digits before the decimal point", maxIntegerDigits))
	}
	if !amount.Equal(amount.Round(maxScale)) {
		return New(field, fmt.Sprintf("must have at most %d decimal places", maxScale))
	}
	return nil
}
