// Package outbox delivers events written by the coordinators to the broker.
package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
)

// Publisher hands one event to the broker.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

const (
	defaultBatchSize    = 50
	defaultPollInterval = 2 * time.Second
)

// Relay moves pending outbox records to a Publisher. Delivery is at least
// once: a record is marked sent only after Publish returns nil.
type Relay struct {
	store     domain.Store
	publisher Publisher
	logger    zerolog.Logger
	metrics   *infra.Metrics
	batchSize int
	interval  time.Duration
}

func NewRelay(store domain.Store, publisher Publisher, logger zerolog.Logger, metrics *infra.Metrics, batchSize int, interval time.Duration) *Relay {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "outbox_relay").Logger(),
		metrics:   metrics,
		batchSize: batchSize,
		interval:  interval,
	}
}

// RunOnce claims one batch and publishes it in order. Publishing stops at the
// first failure; records delivered before it are still marked sent. It
// returns the number of records delivered.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var (
		delivered  int
		publishErr error
	)
	err := r.store.InTx(ctx, func(uow domain.UnitOfWork) error {
		delivered = 0
		publishErr = nil

		records, err := uow.Outbox().ClaimPending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := r.publisher.Publish(ctx, rec.Event); err != nil {
				r.metrics.ObservePublish(rec.Type, err)
				publishErr = err
				r.logger.Warn().Err(err).Int64("seq", rec.Seq).Str("event_type", rec.Type).Msg("publish failed")
				break
			}
			r.metrics.ObservePublish(rec.Type, nil)
			if err := uow.Outbox().MarkSent(ctx, rec.Seq); err != nil {
				return err
			}
			delivered++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, publishErr
}

// Run polls until ctx is done. A full batch is followed immediately by the
// next one.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info().Int("batch_size", r.batchSize).Dur("interval", r.interval).Msg("relay started")
	for {
		n, err := r.RunOnce(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return ctx.Err()
		case err != nil:
			r.logger.Error().Err(err).Msg("relay batch failed")
		case n > 0:
			r.logger.Debug().Int("delivered", n).Msg("relay batch delivered")
		}
		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.interval):
		}
	}
}
