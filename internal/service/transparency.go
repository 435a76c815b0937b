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

const (
	defaultRecentDonations = 10
	maxRecentDonations     = 50
)

var hundred = decimal.NewFromInt(100)

// TransparencySummary shows how much of the raised money has been spent.
type TransparencySummary struct {
	CampaignID        string
	DonationsTotal    decimal.Decimal
	DonationsCount    int64
	ExpendituresTotal decimal.Decimal
	ExpendituresCount int64
	UtilizationPct    decimal.Decimal
}

// AuditReport compares the denormalized campaign aggregate with the ledger.
type AuditReport struct {
	CampaignID       string
	CurrentAmount    decimal.Decimal
	BackerCount      int64
	LedgerTotal      decimal.Decimal
	LedgerCount      int64
	AmountDrift      decimal.Decimal
	BackerDrift      int64
	Consistent       bool
	ExpendituresOver bool
}

// TransparencyQuery serves read-only campaign views. Every call reads one
// consistent snapshot.
type TransparencyQuery struct {
	store   domain.Store
	logger  zerolog.Logger
	metrics *infra.Metrics
}

func NewTransparencyQuery(store domain.Store, logger zerolog.Logger, metrics *infra.Metrics) *TransparencyQuery {
	return &TransparencyQuery{
		store:   store,
		logger:  logger.With().Str("component", "transparency").Logger(),
		metrics: metrics,
	}
}

// Utilization returns expenditures as a percentage of donations, rounded to
// two places. It is zero when nothing was donated.
func Utilization(donations, expenditures decimal.Decimal) decimal.Decimal {
	if !donations.IsPositive() {
		return decimal.Zero
	}
	return expenditures.Mul(hundred).DivRound(donations, 2)
}

func (q *TransparencyQuery) snapshot(ctx context.Context, op, campaignID string) (snap *domain.LedgerSnapshot, err error) {
	started := time.Now()
	defer func() {
		q.metrics.ObserveOperation(op, outcome(err), started)
	}()

	if strings.TrimSpace(campaignID) == "" {
		return nil, domain.InvalidRequest("campaign id is required")
	}
	err = q.store.ReadTx(ctx, func(uow domain.UnitOfWork) error {
		s, err := uow.Ledger().Snapshot(ctx, campaignID)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		err = classify(err)
		q.logger.Debug().Err(err).Str("campaign_id", campaignID).Str("operation", op).Msg("snapshot failed")
		return nil, err
	}
	return snap, nil
}

func (q *TransparencyQuery) Transparency(ctx context.Context, campaignID string) (*TransparencySummary, error) {
	snap, err := q.snapshot(ctx, "transparency", campaignID)
	if err != nil {
		return nil, err
	}
	return &TransparencySummary{
		CampaignID:        campaignID,
		DonationsTotal:    snap.DonationsTotal,
		DonationsCount:    snap.DonationsCount,
		ExpendituresTotal: snap.ExpendituresTotal,
		ExpendituresCount: snap.ExpendituresCount,
		UtilizationPct:    Utilization(snap.DonationsTotal, snap.ExpendituresTotal),
	}, nil
}

// Audit reports drift between current_amount/backer_count and the donation
// rows. A healthy ledger is always consistent.
func (q *TransparencyQuery) Audit(ctx context.Context, campaignID string) (*AuditReport, error) {
	snap, err := q.snapshot(ctx, "audit", campaignID)
	if err != nil {
		return nil, err
	}
	c := snap.Campaign
	report := &AuditReport{
		CampaignID:       campaignID,
		CurrentAmount:    c.CurrentAmount,
		BackerCount:      c.BackerCount,
		LedgerTotal:      snap.DonationsTotal,
		LedgerCount:      snap.DonationsCount,
		AmountDrift:      c.CurrentAmount.Sub(snap.DonationsTotal),
		BackerDrift:      c.BackerCount - snap.DonationsCount,
		ExpendituresOver: snap.ExpendituresTotal.GreaterThan(snap.DonationsTotal),
	}
	report.Consistent = report.AmountDrift.IsZero() && report.BackerDrift == 0
	if !report.Consistent {
		q.logger.Error().
			Str("campaign_id", campaignID).
			Str("amount_drift", report.AmountDrift.String()).
			Int64("backer_drift", report.BackerDrift).
			Msg("campaign aggregate drift")
	}
	return report, nil
}

func (q *TransparencyQuery) Campaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	snap, err := q.snapshot(ctx, "campaign", campaignID)
	if err != nil {
		return nil, err
	}
	c := snap.Campaign
	return &c, nil
}

// RecentDonations lists the newest donations first. limit is clamped to
// [1, 50]; zero or less means the default of 10.
func (q *TransparencyQuery) RecentDonations(ctx context.Context, campaignID string, limit int) ([]domain.Donation, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, domain.InvalidRequest("campaign id is required")
	}
	if limit <= 0 {
		limit = defaultRecentDonations
	}
	if limit > maxRecentDonations {
		limit = maxRecentDonations
	}
	var out []domain.Donation
	err := q.store.ReadTx(ctx, func(uow domain.UnitOfWork) error {
		ds, err := uow.Ledger().RecentDonations(ctx, campaignID, limit)
		if err != nil {
			return err
		}
		out = ds
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
