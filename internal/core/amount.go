package core

import (
	"fmt"
	"regexp"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Amount is a value in minor units of an ISO-4217 currency
type Amount struct {
	Value    int64
	Currency string
}

// NewAmount validates the currency code and builds an Amount
func NewAmount(value int64, currency string) (Amount, error) {
	if !currencyPattern.MatchString(currency) {
		return Amount{}, fmt.Errorf("%w: currency %q must be three uppercase letters", ErrInvalidArgument, currency)
	}
	return Amount{Value: value, Currency: currency}, nil
}

// Equal reports whether both value and currency match exactly
func (a Amount) Equal(other Amount) bool {
	return a.Value == other.Value && a.Currency == other.Currency
}
