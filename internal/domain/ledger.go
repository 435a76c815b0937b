package domain

import "github.com/shopspring/decimal"

// LedgerSnapshot is a campaign row together with its ledger sums, all read at
// the same logical point in time.
type LedgerSnapshot struct {
	Campaign          Campaign
	DonationsTotal    decimal.Decimal
	DonationsCount    int64
	ExpendituresTotal decimal.Decimal
	ExpendituresCount int64
}

// Ledger amounts are stored as numeric(18, 2).
const (
	AmountScale     = 2
	amountPrecision = 18
)

var maxAmount = decimal.New(1, amountPrecision-AmountScale)

// ValidAmount reports whether amount can be recorded exactly: strictly
// positive, at most two decimal places, and below 10^16.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(AmountScale)) &&
		amount.LessThan(maxAmount)
}
