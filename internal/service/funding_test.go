package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"marketfund/internal/adapter/memstore"
	"marketfund/internal/domain"
)

func TestFundCampaignUpdatesAggregate(t *testing.T) {
	store := newStore()
	store.SeedCampaign(activeCampaign("c1"))
	c := NewFundingCoordinator(store, zerolog.Nop(), nil)

	for _, amount := range []string{"25.50", "74.50"} {
		if _, err := c.FundCampaign(context.Background(), FundRequest{
			DonorID:    "donor-1",
			CampaignID: "c1",
			Amount:     money(amount),
			Properties: map[string]string{"country": "ID"},
		}); err != nil {
			t.Fatalf("FundCampaign(%s): %v", amount, err)
		}
	}

	campaign, _ := store.CommittedCampaign("c1")
	if !campaign.CurrentAmount.Equal(money("100")) || campaign.BackerCount != 2 {
		t.Fatalf("aggregate = %s/%d, want 100/2", campaign.CurrentAmount, campaign.BackerCount)
	}
	donations := store.CommittedDonations("c1")
	if len(donations) != 2 || donations[0].Properties["country"] != "ID" {
		t.Fatalf("unexpected donations %+v", donations)
	}
	records := store.OutboxRecords()
	if len(records) != 2 || records[0].Type != domain.EventDonationRecorded || records[0].Key != "c1" {
		t.Fatalf("unexpected outbox %+v", records)
	}
}

func TestFundCampaignRejections(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name   string
		mutate func(*domain.Campaign)
		want   error
	}{
		{"completed", func(c *domain.Campaign) { c.State = domain.CampaignStateCompleted }, domain.ErrCampaignInactive},
		{"cancelled", func(c *domain.Campaign) { c.State = domain.CampaignStateCancelled }, domain.ErrCampaignInactive},
		{"pending moderation", func(c *domain.Campaign) { c.Moderation = domain.ModerationPending }, domain.ErrCampaignInactive},
		{"rejected", func(c *domain.Campaign) { c.Moderation = domain.ModerationRejected }, domain.ErrCampaignInactive},
		{"ended", func(c *domain.Campaign) { c.EndsAt = &past }, domain.ErrCampaignInactive},
		{"ends later", func(c *domain.Campaign) { c.EndsAt = &future }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore()
			campaign := activeCampaign("c1")
			tc.mutate(&campaign)
			store.SeedCampaign(campaign)
			c := NewFundingCoordinator(store, zerolog.Nop(), nil, WithFundingClock(func() time.Time { return now }))

			_, err := c.FundCampaign(context.Background(), FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("5")})
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got, _ := store.CommittedCampaign("c1"); got.BackerCount != 0 || len(store.CommittedDonations("c1")) != 0 {
				t.Fatalf("rejected donation left state behind: %+v", got)
			}
		})
	}
}

func TestFundCampaignValidation(t *testing.T) {
	store := newStore()
	store.SeedCampaign(activeCampaign("c1"))
	c := NewFundingCoordinator(store, zerolog.Nop(), nil)

	cases := []struct {
		name string
		req  FundRequest
		want error
	}{
		{"zero amount", FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("0")}, domain.ErrInvalidAmount},
		{"negative amount", FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("-1")}, domain.ErrInvalidAmount},
		{"sub-cent amount", FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("0.001")}, domain.ErrInvalidAmount},
		{"three decimal places", FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("10.125")}, domain.ErrInvalidAmount},
		{"beyond column precision", FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("10000000000000000")}, domain.ErrInvalidAmount},
		{"blank donor", FundRequest{CampaignID: "c1", Amount: money("1")}, domain.ErrInvalidRequest},
		{"unknown campaign", FundRequest{DonorID: "d", CampaignID: "nope", Amount: money("1")}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.FundCampaign(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if !errors.Is(domain.ErrInvalidAmount, domain.ErrInvalidRequest) {
		t.Fatalf("invalid amount should be an invalid request")
	}

	campaign, _ := store.CommittedCampaign("c1")
	if !campaign.CurrentAmount.IsZero() || campaign.BackerCount != 0 || len(store.CommittedDonations("c1")) != 0 {
		t.Fatalf("rejected donations changed the ledger: %+v", campaign)
	}
}

func TestFundCampaignConcurrentDonorsKeepAggregateExact(t *testing.T) {
	const donors = 50
	store := newStore(memstore.WithLockTimeout(5 * time.Second))
	store.SeedCampaign(activeCampaign("c1"))
	c := NewFundingCoordinator(store, zerolog.Nop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < donors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FundCampaign(context.Background(), FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("1.25")}); err != nil {
				t.Errorf("FundCampaign: %v", err)
			}
		}()
	}
	wg.Wait()

	campaign, _ := store.CommittedCampaign("c1")
	if !campaign.CurrentAmount.Equal(money("62.5")) || campaign.BackerCount != donors {
		t.Fatalf("aggregate = %s/%d", campaign.CurrentAmount, campaign.BackerCount)
	}
	if n := len(store.CommittedDonations("c1")); n != donors {
		t.Fatalf("donations = %d, want %d", n, donors)
	}
}

func TestFundCampaignLockTimeout(t *testing.T) {
	store := newStore(memstore.WithLockTimeout(30 * time.Millisecond))
	store.SeedCampaign(activeCampaign("c1"))
	c := NewFundingCoordinator(store, zerolog.Nop(), nil)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.InTx(context.Background(), func(uow domain.UnitOfWork) error {
			if _, err := uow.Ledger().LockCampaign(context.Background(), "c1"); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	_, err := c.FundCampaign(context.Background(), FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("1")})
	close(release)
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatalf("expected lock timeout, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("holder: %v", err)
	}
	if got, _ := store.CommittedCampaign("c1"); got.BackerCount != 0 {
		t.Fatalf("backer count = %d after timeout", got.BackerCount)
	}
}

func TestFundCampaignStorageFailureRollsBack(t *testing.T) {
	store := newStore()
	store.SeedCampaign(activeCampaign("c1"))
	c := NewFundingCoordinator(failingStore{store}, zerolog.Nop(), nil)

	_, err := c.FundCampaign(context.Background(), FundRequest{DonorID: "d", CampaignID: "c1", Amount: money("10")})
	if !errors.Is(err, domain.ErrTransactionFailed) {
		t.Fatalf("expected transaction failed, got %v", err)
	}
	campaign, _ := store.CommittedCampaign("c1")
	if !campaign.CurrentAmount.IsZero() || campaign.BackerCount != 0 || len(store.CommittedDonations("c1")) != 0 {
		t.Fatalf("partial write survived rollback: %+v", campaign)
	}
}

func TestRecordExpenditure(t *testing.T) {
	store := newStore()
	completed := activeCampaign("c1")
	completed.State = domain.CampaignStateCompleted
	store.SeedCampaign(completed)
	c := NewFundingCoordinator(store, zerolog.Nop(), nil)

	id, err := c.RecordExpenditure(context.Background(), ExpenditureRequest{CreatorID: "creator", CampaignID: "c1", Amount: money("40"), Title: " Pipes "})
	if err != nil || id == "" {
		t.Fatalf("RecordExpenditure: id=%q err=%v", id, err)
	}
	records := store.OutboxRecords()
	if len(records) != 1 || records[0].Type != domain.EventExpenditureRecorded {
		t.Fatalf("unexpected outbox %+v", records)
	}
	campaign, _ := store.CommittedCampaign("c1")
	if !campaign.CurrentAmount.IsZero() || campaign.BackerCount != 0 {
		t.Fatalf("expenditure must not touch donation aggregates: %+v", campaign)
	}

	if _, err := c.RecordExpenditure(context.Background(), ExpenditureRequest{CreatorID: "creator", CampaignID: "nope", Amount: money("1"), Title: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for _, amount := range []string{"0", "0.001", "99.999", "10000000000000000"} {
		if _, err := c.RecordExpenditure(context.Background(), ExpenditureRequest{CreatorID: "creator", CampaignID: "c1", Amount: money(amount), Title: "x"}); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("amount %s: expected invalid amount, got %v", amount, err)
		}
	}
	if got := len(store.OutboxRecords()); got != 1 {
		t.Fatalf("rejected expenditures enqueued events: %d records", got)
	}
	if _, err := c.RecordExpenditure(context.Background(), ExpenditureRequest{CreatorID: "creator", CampaignID: "c1", Amount: money("1")}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for blank title, got %v", err)
	}
}
