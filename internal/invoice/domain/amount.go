package domain

import (
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for amounts.
const AmountScale = 2

// MaxAmount is the first value that no longer fits numeric(12,2).
var MaxAmount = decimal.New(1, 10)

// NormalizeAmount rejects negative or oversized amounts and rounds to cents.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	rounded := amount.Round(AmountScale)
	if rounded.GreaterThanOrEqual(MaxAmount) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return rounded, nil
}
