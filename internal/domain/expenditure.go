package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expenditure records money spent out of a campaign's funds.
type Expenditure struct {
	ID         string
	CampaignID string
	CreatorID  string
	Amount     decimal.Decimal
	Title      string
	UsedAt     *time.Time
	CreatedAt  time.Time
}
