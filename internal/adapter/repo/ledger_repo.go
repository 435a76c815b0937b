package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
	"marketfund/internal/sqlinline"
)

// LedgerRepositoryPG implements domain.LedgerStore: donations, expenditures
// and the campaign aggregate columns.
type LedgerRepositoryPG struct {
	sql infra.SQLExecutor
}

// LockCampaign reads the campaign row under FOR UPDATE.
func (r *LedgerRepositoryPG) LockCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QLockCampaign, campaignID)
	var c domain.Campaign
	if err := scanCampaign(row, &c); err != nil {
		if infra.IsNoRows(err) {
			return nil, &domain.NotFoundError{Entity: "campaign", ID: campaignID}
		}
		return nil, err
	}
	return &c, nil
}

// AppendDonation inserts a new donation record.
func (r *LedgerRepositoryPG) AppendDonation(ctx context.Context, donation domain.Donation) (*domain.Donation, error) {
	if !domain.ValidAmount(donation.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	props, err := json.Marshal(donation.Properties)
	if err != nil {
		return nil, fmt.Errorf("encode donation properties: %w", err)
	}
	if donation.Properties == nil {
		props = nil
	}
	err = r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		donation.ID,
		donation.CampaignID,
		donation.DonorID,
		donation.Amount.String(),
		donation.Anonymous,
		donation.Message,
		donation.PaymentMethod,
		props,
	).Scan(&donation.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// AppendExpenditure inserts a new expenditure record.
func (r *LedgerRepositoryPG) AppendExpenditure(ctx context.Context, expenditure domain.Expenditure) (*domain.Expenditure, error) {
	if !domain.ValidAmount(expenditure.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if expenditure.ID == "" {
		expenditure.ID = uuid.NewString()
	}
	err := r.sql.QueryRow(ctx, sqlinline.QInsertExpenditure,
		expenditure.ID,
		expenditure.CampaignID,
		expenditure.CreatorID,
		expenditure.Amount.String(),
		expenditure.Title,
		expenditure.UsedAt,
	).Scan(&expenditure.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &expenditure, nil
}

// IncrementCampaignAggregate adds to current_amount and backer_count.
func (r *LedgerRepositoryPG) IncrementCampaignAggregate(ctx context.Context, campaignID string, amountDelta decimal.Decimal, backerDelta int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QIncrementCampaignAggregate, campaignID, amountDelta.String(), backerDelta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "campaign", ID: campaignID}
	}
	return nil
}

// Snapshot reads the campaign and both ledger sums in a single statement.
func (r *LedgerRepositoryPG) Snapshot(ctx context.Context, campaignID string) (*domain.LedgerSnapshot, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCampaignSnapshot, campaignID)
	var (
		snap               domain.LedgerSnapshot
		donations, spent   string
		donationsN, spentN int64
	)
	err := scanCampaign(row, &snap.Campaign, &donations, &donationsN, &spent, &spentN)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, &domain.NotFoundError{Entity: "campaign", ID: campaignID}
		}
		return nil, err
	}
	if snap.DonationsTotal, err = decimal.NewFromString(donations); err != nil {
		return nil, fmt.Errorf("donations total: %w", err)
	}
	if snap.ExpendituresTotal, err = decimal.NewFromString(spent); err != nil {
		return nil, fmt.Errorf("expenditures total: %w", err)
	}
	snap.DonationsCount = donationsN
	snap.ExpendituresCount = spentN
	return &snap, nil
}

// RecentDonations returns recent donations limited by the input value.
func (r *LedgerRepositoryPG) RecentDonations(ctx context.Context, campaignID string, limit int) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonations, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var (
			d      domain.Donation
			amount string
			props  []byte
		)
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.DonorID, &amount, &d.Anonymous, &d.Message, &d.PaymentMethod, &props, &d.CreatedAt); err != nil {
			return nil, err
		}
		if d.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("donation %s amount: %w", d.ID, err)
		}
		if len(props) > 0 {
			if err := json.Unmarshal(props, &d.Properties); err != nil {
				return nil, fmt.Errorf("donation %s properties: %w", d.ID, err)
			}
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if _, err := r.Snapshot(ctx, campaignID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// scanCampaign scans the shared campaign column prefix followed by extra.
func scanCampaign(row pgx.Row, c *domain.Campaign, extra ...any) error {
	var (
		goal, current     string
		state, moderation string
		endsAt            *time.Time
	)
	dest := append([]any{
		&c.ID, &c.Title, &goal, &current, &c.BackerCount, &state, &moderation, &endsAt, &c.CreatedAt, &c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	var err error
	if c.GoalAmount, err = decimal.NewFromString(goal); err != nil {
		return fmt.Errorf("campaign %s goal: %w", c.ID, err)
	}
	if c.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return fmt.Errorf("campaign %s current amount: %w", c.ID, err)
	}
	c.State = domain.CampaignState(state)
	c.Moderation = domain.ModerationStatus(moderation)
	c.EndsAt = endsAt
	return nil
}
