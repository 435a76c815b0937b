// Package memstore is a single-node, in-process implementation of
// domain.Store. Row locks are per-key and timed; writes are staged on the
// unit of work and applied atomically on commit.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
)

const defaultLockTimeout = 5 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a unit of work waits for a row lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithClock overrides the time source used for created_at stamps and
// campaign end checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type campaignLedger struct {
	campaign     domain.Campaign
	donations    []domain.Donation
	expenditures []domain.Expenditure
}

// Store holds committed state. mu guards every map and slice below.
type Store struct {
	mu        sync.RWMutex
	products  map[string]domain.Product
	orders    []domain.Order
	campaigns map[string]*campaignLedger
	outbox    []domain.OutboxRecord
	outboxSeq int64

	locks       *keyLocks
	lockTimeout time.Duration
	now         func() time.Time
}

func New(opts ...Option) *Store {
	s := &Store{
		products:    make(map[string]domain.Product),
		campaigns:   make(map[string]*campaignLedger),
		locks:       newKeyLocks(),
		lockTimeout: defaultLockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InTx runs fn in a read-write unit of work.
func (s *Store) InTx(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	t := newTx(s, false)
	defer t.releaseLocks()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ReadTx holds the data read lock for the whole of fn, so every read inside
// observes the same committed state.
func (s *Store) ReadTx(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newTx(s, true))
}

// SeedProduct stores or replaces a product. Catalog management owns products;
// this is the hook used by tests and single-node bootstrapping.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedCampaign stores or replaces a campaign, keeping any ledger rows.
func (s *Store) SeedCampaign(c domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if l, ok := s.campaigns[c.ID]; ok {
		l.campaign = c
		return
	}
	s.campaigns[c.ID] = &campaignLedger{campaign: c}
}

// Product returns the committed product.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// CommittedOrders returns a copy of all committed orders in commit order.
func (s *Store) CommittedOrders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Order(nil), s.orders...)
}

// CommittedDonations returns a copy of a campaign's donations.
func (s *Store) CommittedDonations(campaignID string) []domain.Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.campaigns[campaignID]
	if !ok {
		return nil
	}
	return append([]domain.Donation(nil), l.donations...)
}

// CommittedCampaign returns the committed campaign row.
func (s *Store) CommittedCampaign(id string) (domain.Campaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.campaigns[id]
	if !ok {
		return domain.Campaign{}, false
	}
	return l.campaign, true
}

// OutboxRecords returns a copy of every outbox record.
func (s *Store) OutboxRecords() []domain.OutboxRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OutboxRecord(nil), s.outbox...)
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sumDonations(ds []domain.Donation) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.Amount)
	}
	return total
}

func sumExpenditures(es []domain.Expenditure) decimal.Decimal {
	total := decimal.Zero
	for _, e := range es {
		total = total.Add(e.Amount)
	}
	return total
}

var _ domain.Store = (*Store)(nil)
