package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// InventoryStore is the single source of truth for stock levels.
type InventoryStore interface {
	// LockAndFetch takes exclusive row locks on ids in ascending order and
	// holds them until the unit of work ends.
	LockAndFetch(ctx context.Context, ids []string) (map[string]Product, error)
	// Decrement requires the lock from LockAndFetch.
	Decrement(ctx context.Context, productID string, amount int) error
}

// OrderStore persists committed order lines.
type OrderStore interface {
	Insert(ctx context.Context, order *Order) error
}

// LedgerStore holds the append-only funding ledger and the campaign aggregates.
type LedgerStore interface {
	LockCampaign(ctx context.Context, campaignID string) (*Campaign, error)
	AppendDonation(ctx context.Context, donation Donation) (*Donation, error)
	AppendExpenditure(ctx context.Context, expenditure Expenditure) (*Expenditure, error)
	IncrementCampaignAggregate(ctx context.Context, campaignID string, amountDelta decimal.Decimal, backerDelta int64) error
	Snapshot(ctx context.Context, campaignID string) (*LedgerSnapshot, error)
	RecentDonations(ctx context.Context, campaignID string, limit int) ([]Donation, error)
}

// OutboxStore queues events for asynchronous delivery.
type OutboxStore interface {
	Enqueue(ctx context.Context, event Event) error
	// ClaimPending locks up to limit undelivered records for the unit of work.
	ClaimPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, seq int64) error
}

// UnitOfWork exposes the stores bound to one transaction.
type UnitOfWork interface {
	Inventory() InventoryStore
	Orders() OrderStore
	Ledger() LedgerStore
	Outbox() OutboxStore
}

// Store runs units of work. InTx commits when fn returns nil and rolls back
// otherwise; ReadTx runs fn against a single consistent read snapshot.
type Store interface {
	InTx(ctx context.Context, fn func(uow UnitOfWork) error) error
	ReadTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
