package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Prices are persisted and served as JSON numbers, never as quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ParsePrice converts the textual form of a price into a non-negative decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price[%s] is not a number: %w", s, err)
	}

	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("price[%s] is negative", s)
	}

	return amount, nil
}
