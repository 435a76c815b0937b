package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Donation represents a supporter contribution record.
type Donation struct {
	ID            string
	CampaignID    string
	DonorID       string
	Amount        decimal.Decimal
	Anonymous     bool
	Message       string
	PaymentMethod string
	Properties    map[string]string
	CreatedAt     time.Time
}
