package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"marketfund/internal/adapter/memstore"
	"marketfund/internal/domain"
)

var errDiskFull = errors.New("disk full")

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStore(opts ...memstore.Option) *memstore.Store {
	return memstore.New(append([]memstore.Option{memstore.WithLockTimeout(200 * time.Millisecond)}, opts...)...)
}

func activeCampaign(id string) domain.Campaign {
	return domain.Campaign{
		ID:         id,
		Title:      "Clean water",
		GoalAmount: money("1000"),
		State:      domain.CampaignStateActive,
		Moderation: domain.ModerationApproved,
	}
}

// failingStore lets the unit of work run against the real store but fails
// the outbox write, which comes last in every coordinator.
type failingStore struct {
	domain.Store
}

func (f failingStore) InTx(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	return f.Store.InTx(ctx, func(uow domain.UnitOfWork) error {
		return fn(failingUoW{uow})
	})
}

type failingUoW struct {
	domain.UnitOfWork
}

func (u failingUoW) Outbox() domain.OutboxStore { return failingOutbox{u.UnitOfWork.Outbox()} }

type failingOutbox struct {
	domain.OutboxStore
}

func (failingOutbox) Enqueue(context.Context, domain.Event) error { return errDiskFull }
