package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
)

// FundRequest is one donation attempt.
type FundRequest struct {
	DonorID       string
	CampaignID    string
	Amount        decimal.Decimal
	Message       string
	Anonymous     bool
	PaymentMethod string
	Properties    map[string]string
}

// ExpenditureRequest records money spent by the campaign creator.
type ExpenditureRequest struct {
	CreatorID  string
	CampaignID string
	Amount     decimal.Decimal
	Title      string
	UsedAt     *time.Time
}

const maxMessageLen = 1000

// FundingCoordinator is the only writer of the campaign ledger and its
// aggregates.
type FundingCoordinator struct {
	store   domain.Store
	logger  zerolog.Logger
	metrics *infra.Metrics
	now     func() time.Time
}

type FundingOption func(*FundingCoordinator)

// WithFundingClock overrides the clock used for campaign end-time checks.
func WithFundingClock(now func() time.Time) FundingOption {
	return func(c *FundingCoordinator) { c.now = now }
}

func NewFundingCoordinator(store domain.Store, logger zerolog.Logger, metrics *infra.Metrics, opts ...FundingOption) *FundingCoordinator {
	c := &FundingCoordinator{
		store:   store,
		logger:  logger.With().Str("component", "funding").Logger(),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FundCampaign appends a donation and bumps the campaign aggregates in the
// same transaction, under the campaign row lock.
func (c *FundingCoordinator) FundCampaign(ctx context.Context, req FundRequest) (id string, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveOperation("fund_campaign", outcome(err), started)
	}()

	switch {
	case strings.TrimSpace(req.DonorID) == "":
		return "", domain.InvalidRequest("donor id is required")
	case strings.TrimSpace(req.CampaignID) == "":
		return "", domain.InvalidRequest("campaign id is required")
	case !domain.ValidAmount(req.Amount):
		return "", domain.ErrInvalidAmount
	case len(req.Message) > maxMessageLen:
		return "", domain.InvalidRequest("message is too long")
	}

	err = c.store.InTx(ctx, func(uow domain.UnitOfWork) error {
		ledger := uow.Ledger()
		campaign, err := ledger.LockCampaign(ctx, req.CampaignID)
		if err != nil {
			return err
		}
		now := c.now()
		if !campaign.AcceptsDonations(now) {
			return domain.ErrCampaignInactive
		}

		donation, err := ledger.AppendDonation(ctx, domain.Donation{
			CampaignID:    req.CampaignID,
			DonorID:       req.DonorID,
			Amount:        req.Amount,
			Anonymous:     req.Anonymous,
			Message:       req.Message,
			PaymentMethod: req.PaymentMethod,
			Properties:    req.Properties,
		})
		if err != nil {
			return err
		}
		if err := ledger.IncrementCampaignAggregate(ctx, req.CampaignID, req.Amount, 1); err != nil {
			return err
		}

		payload := donationRecordedPayload{
			DonationID: donation.ID,
			CampaignID: req.CampaignID,
			Amount:     req.Amount.StringFixed(2),
			Anonymous:  req.Anonymous,
		}
		if !req.Anonymous {
			payload.DonorID = req.DonorID
		}
		event, err := newEvent(domain.EventDonationRecorded, req.CampaignID, payload, now)
		if err != nil {
			return err
		}
		if err := uow.Outbox().Enqueue(ctx, event); err != nil {
			return err
		}
		id = donation.ID
		return nil
	})
	if err != nil {
		err = classify(err)
		c.logger.Warn().Err(err).Str("campaign_id", req.CampaignID).Str("donor_id", req.DonorID).Msg("donation rejected")
		return "", err
	}
	c.logger.Debug().Str("campaign_id", req.CampaignID).Str("donation_id", id).Str("amount", req.Amount.String()).Msg("donation committed")
	return id, nil
}

// RecordExpenditure appends an expenditure under the campaign row lock. The
// campaign may be in any state.
func (c *FundingCoordinator) RecordExpenditure(ctx context.Context, req ExpenditureRequest) (id string, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveOperation("record_expenditure", outcome(err), started)
	}()

	switch {
	case strings.TrimSpace(req.CreatorID) == "":
		return "", domain.InvalidRequest("creator id is required")
	case strings.TrimSpace(req.CampaignID) == "":
		return "", domain.InvalidRequest("campaign id is required")
	case strings.TrimSpace(req.Title) == "":
		return "", domain.InvalidRequest("title is required")
	case !domain.ValidAmount(req.Amount):
		return "", domain.ErrInvalidAmount
	}

	err = c.store.InTx(ctx, func(uow domain.UnitOfWork) error {
		ledger := uow.Ledger()
		if _, err := ledger.LockCampaign(ctx, req.CampaignID); err != nil {
			return err
		}
		exp, err := ledger.AppendExpenditure(ctx, domain.Expenditure{
			CampaignID: req.CampaignID,
			CreatorID:  req.CreatorID,
			Amount:     req.Amount,
			Title:      strings.TrimSpace(req.Title),
			UsedAt:     req.UsedAt,
		})
		if err != nil {
			return err
		}
		event, err := newEvent(domain.EventExpenditureRecorded, req.CampaignID, expenditureRecordedPayload{
			ExpenditureID: exp.ID,
			CampaignID:    req.CampaignID,
			Amount:        req.Amount.StringFixed(2),
			Title:         exp.Title,
		}, c.now())
		if err != nil {
			return err
		}
		if err := uow.Outbox().Enqueue(ctx, event); err != nil {
			return err
		}
		id = exp.ID
		return nil
	})
	if err != nil {
		err = classify(err)
		c.logger.Warn().Err(err).Str("campaign_id", req.CampaignID).Msg("expenditure rejected")
		return "", err
	}
	c.logger.Debug().Str("campaign_id", req.CampaignID).Str("expenditure_id", id).Msg("expenditure committed")
	return id, nil
}
