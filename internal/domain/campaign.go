package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignState enumerates the funding lifecycle.
type CampaignState string

const (
	CampaignStateActive    CampaignState = "active"
	CampaignStateCompleted CampaignState = "completed"
	CampaignStateCancelled CampaignState = "cancelled"
)

// ModerationStatus is set by content moderation and only read here.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Campaign carries the denormalized funding aggregates.
type Campaign struct {
	ID            string
	Title         string
	GoalAmount    decimal.Decimal
	CurrentAmount decimal.Decimal
	BackerCount   int64
	State         CampaignState
	Moderation    ModerationStatus
	EndsAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AcceptsDonations reports whether the campaign can be funded at now.
func (c Campaign) AcceptsDonations(now time.Time) bool {
	if c.State != CampaignStateActive || c.Moderation != ModerationApproved {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return true
}
