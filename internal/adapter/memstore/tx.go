package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
)

var errReadOnly = errors.New("memstore: write in read-only unit of work")

type aggregateDelta struct {
	amount  decimal.Decimal
	backers int64
}

// tx is one unit of work. Nothing it stages is visible to other units of
// work until commit.
type tx struct {
	s        *Store
	readOnly bool

	held []string
	has  map[string]bool

	stock        map[string]int
	orders       []domain.Order
	donations    []domain.Donation
	expenditures []domain.Expenditure
	aggregates   map[string]aggregateDelta
	events       []domain.Event
	sent         []int64
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:          s,
		readOnly:   readOnly,
		has:        make(map[string]bool),
		stock:      make(map[string]int),
		aggregates: make(map[string]aggregateDelta),
	}
}

func (t *tx) Inventory() domain.InventoryStore { return inventory{t} }
func (t *tx) Orders() domain.OrderStore        { return orders{t} }
func (t *tx) Ledger() domain.LedgerStore       { return ledger{t} }
func (t *tx) Outbox() domain.OutboxStore       { return outbox{t} }

func (t *tx) lock(ctx context.Context, key string) error {
	if t.readOnly {
		return errReadOnly
	}
	if t.has[key] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, key, t.s.lockTimeout); err != nil {
		return err
	}
	t.has[key] = true
	t.held = append(t.held, key)
	return nil
}

func (t *tx) releaseLocks() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
}

// read runs fn against committed state. A read-only unit of work already
// holds the read lock for its whole lifetime.
func (t *tx) read(fn func()) {
	if t.readOnly {
		fn()
		return
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	fn()
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, available := range t.stock {
		p := s.products[id]
		p.Available = available
		s.products[id] = p
	}
	s.orders = append(s.orders, t.orders...)
	for _, d := range t.donations {
		l := s.campaigns[d.CampaignID]
		l.donations = append(l.donations, d)
	}
	for _, e := range t.expenditures {
		l := s.campaigns[e.CampaignID]
		l.expenditures = append(l.expenditures, e)
	}
	now := s.now()
	for id, delta := range t.aggregates {
		l := s.campaigns[id]
		l.campaign.CurrentAmount = l.campaign.CurrentAmount.Add(delta.amount)
		l.campaign.BackerCount += delta.backers
		l.campaign.UpdatedAt = now
	}
	for _, ev := range t.events {
		s.outboxSeq++
		s.outbox = append(s.outbox, domain.OutboxRecord{Seq: s.outboxSeq, Event: ev})
	}
	for _, seq := range t.sent {
		for i := range s.outbox {
			if s.outbox[i].Seq == seq && s.outbox[i].SentAt == nil {
				sentAt := now
				s.outbox[i].SentAt = &sentAt
			}
		}
	}
}

type inventory struct{ t *tx }

func (i inventory) LockAndFetch(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	ordered := sortedUnique(ids)
	for _, id := range ordered {
		if err := i.t.lock(ctx, productKey(id)); err != nil {
			return nil, err
		}
	}

	out := make(map[string]domain.Product, len(ordered))
	var missing string
	i.t.read(func() {
		for _, id := range ordered {
			p, ok := i.t.s.products[id]
			if !ok {
				missing = id
				return
			}
			if staged, ok := i.t.stock[id]; ok {
				p.Available = staged
			}
			out[id] = p
		}
	})
	if missing != "" {
		return nil, &domain.NotFoundError{Entity: "product", ID: missing}
	}
	return out, nil
}

func (i inventory) Decrement(_ context.Context, productID string, amount int) error {
	if i.t.readOnly {
		return errReadOnly
	}
	if amount <= 0 {
		return domain.InvalidRequest("decrement amount must be positive")
	}
	if !i.t.has[productKey(productID)] {
		return fmt.Errorf("memstore: decrement of product %s without lock", productID)
	}
	current, ok := i.t.stock[productID]
	if !ok {
		var found bool
		i.t.read(func() {
			var p domain.Product
			p, found = i.t.s.products[productID]
			current = p.Available
		})
		if !found {
			return &domain.NotFoundError{Entity: "product", ID: productID}
		}
	}
	if amount > current {
		return &domain.StockError{ProductID: productID, Requested: amount, Available: current}
	}
	i.t.stock[productID] = current - amount
	return nil
}

type orders struct{ t *tx }

func (o orders) Insert(_ context.Context, order *domain.Order) error {
	if o.t.readOnly {
		return errReadOnly
	}
	if order == nil {
		return domain.InvalidRequest("order is required")
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = o.t.s.now()
	}
	o.t.orders = append(o.t.orders, *order)
	return nil
}

type ledger struct{ t *tx }

func (l ledger) campaign(id string) (domain.Campaign, bool) {
	var (
		c  domain.Campaign
		ok bool
	)
	l.t.read(func() {
		var cl *campaignLedger
		cl, ok = l.t.s.campaigns[id]
		if ok {
			c = cl.campaign
		}
	})
	if !ok {
		return domain.Campaign{}, false
	}
	if delta, staged := l.t.aggregates[id]; staged {
		c.CurrentAmount = c.CurrentAmount.Add(delta.amount)
		c.BackerCount += delta.backers
	}
	return c, true
}

func (l ledger) LockCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if err := l.t.lock(ctx, campaignKey(campaignID)); err != nil {
		return nil, err
	}
	c, ok := l.campaign(campaignID)
	if !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: campaignID}
	}
	return &c, nil
}

func (l ledger) AppendDonation(_ context.Context, d domain.Donation) (*domain.Donation, error) {
	if l.t.readOnly {
		return nil, errReadOnly
	}
	if !domain.ValidAmount(d.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if _, ok := l.campaign(d.CampaignID); !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: d.CampaignID}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = l.t.s.now()
	l.t.donations = append(l.t.donations, d)
	return &d, nil
}

func (l ledger) AppendExpenditure(_ context.Context, e domain.Expenditure) (*domain.Expenditure, error) {
	if l.t.readOnly {
		return nil, errReadOnly
	}
	if !domain.ValidAmount(e.Amount) {
		return nil, domain.ErrInvalidAmount
	}
	if _, ok := l.campaign(e.CampaignID); !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: e.CampaignID}
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = l.t.s.now()
	l.t.expenditures = append(l.t.expenditures, e)
	return &e, nil
}

func (l ledger) IncrementCampaignAggregate(ctx context.Context, campaignID string, amountDelta decimal.Decimal, backerDelta int64) error {
	if err := l.t.lock(ctx, campaignKey(campaignID)); err != nil {
		return err
	}
	if _, ok := l.campaign(campaignID); !ok {
		return &domain.NotFoundError{Entity: "campaign", ID: campaignID}
	}
	delta := l.t.aggregates[campaignID]
	delta.amount = delta.amount.Add(amountDelta)
	delta.backers += backerDelta
	l.t.aggregates[campaignID] = delta
	return nil
}

func (l ledger) Snapshot(_ context.Context, campaignID string) (*domain.LedgerSnapshot, error) {
	var (
		snap domain.LedgerSnapshot
		ok   bool
	)
	l.t.read(func() {
		var cl *campaignLedger
		cl, ok = l.t.s.campaigns[campaignID]
		if !ok {
			return
		}
		snap = domain.LedgerSnapshot{
			Campaign:          cl.campaign,
			DonationsTotal:    sumDonations(cl.donations),
			DonationsCount:    int64(len(cl.donations)),
			ExpendituresTotal: sumExpenditures(cl.expenditures),
			ExpendituresCount: int64(len(cl.expenditures)),
		}
	})
	if !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: campaignID}
	}

	for _, d := range l.t.donations {
		if d.CampaignID == campaignID {
			snap.DonationsTotal = snap.DonationsTotal.Add(d.Amount)
			snap.DonationsCount++
		}
	}
	for _, e := range l.t.expenditures {
		if e.CampaignID == campaignID {
			snap.ExpendituresTotal = snap.ExpendituresTotal.Add(e.Amount)
			snap.ExpendituresCount++
		}
	}
	if delta, staged := l.t.aggregates[campaignID]; staged {
		snap.Campaign.CurrentAmount = snap.Campaign.CurrentAmount.Add(delta.amount)
		snap.Campaign.BackerCount += delta.backers
	}
	return &snap, nil
}

func (l ledger) RecentDonations(_ context.Context, campaignID string, limit int) ([]domain.Donation, error) {
	var (
		out []domain.Donation
		ok  bool
	)
	l.t.read(func() {
		var cl *campaignLedger
		cl, ok = l.t.s.campaigns[campaignID]
		if ok {
			for i := len(cl.donations) - 1; i >= 0; i-- {
				out = append(out, cl.donations[i])
			}
		}
	})
	if !ok {
		return nil, &domain.NotFoundError{Entity: "campaign", ID: campaignID}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type outbox struct{ t *tx }

func (o outbox) Enqueue(_ context.Context, event domain.Event) error {
	if o.t.readOnly {
		return errReadOnly
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = o.t.s.now()
	}
	o.t.events = append(o.t.events, event)
	return nil
}

func (o outbox) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	if err := o.t.lock(ctx, outboxKey); err != nil {
		return nil, err
	}
	var out []domain.OutboxRecord
	o.t.read(func() {
		for _, rec := range o.t.s.outbox {
			if rec.SentAt != nil {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (o outbox) MarkSent(_ context.Context, seq int64) error {
	if o.t.readOnly {
		return errReadOnly
	}
	if !o.t.has[outboxKey] {
		return fmt.Errorf("memstore: mark sent of record %d without claim", seq)
	}
	o.t.sent = append(o.t.sent, seq)
	return nil
}
