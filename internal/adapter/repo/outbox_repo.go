package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
	"marketfund/internal/sqlinline"
)

// OutboxRepositoryPG implements domain.OutboxStore on the outbox table.
type OutboxRepositoryPG struct {
	sql infra.SQLExecutor
}

func (r *OutboxRepositoryPG) Enqueue(ctx context.Context, event domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertOutbox, event.ID, event.Type, event.Key, []byte(event.Payload), event.CreatedAt)
	return err
}

// ClaimPending locks undelivered rows with SKIP LOCKED so concurrent relays
// never publish the same record twice.
func (r *OutboxRepositoryPG) ClaimPending(ctx context.Context, limit int) ([]domain.OutboxRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QClaimOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutboxRecord
	for rows.Next() {
		var (
			rec     domain.OutboxRecord
			payload []byte
		)
		if err := rows.Scan(&rec.Seq, &rec.ID, &rec.Type, &rec.Key, &payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *OutboxRepositoryPG) MarkSent(ctx context.Context, seq int64) error {
	_, err := r.sql.Exec(ctx, sqlinline.QMarkOutboxSent, seq)
	return err
}
