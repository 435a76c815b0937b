// Package repo implements domain.Store on PostgreSQL through pgx.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
	"marketfund/internal/sqlinline"
)

// Store runs units of work as PostgreSQL transactions. Row locks come from
// SELECT ... FOR UPDATE and lock waits are bounded by lock_timeout.
type Store struct {
	pool        *pgxpool.Pool
	sql         *infra.SQLRunner
	lockTimeout time.Duration
}

// NewStore creates a store backed by pool.
func NewStore(pool *pgxpool.Pool, logger zerolog.Logger, lockTimeout time.Duration) *Store {
	return &Store{
		pool:        pool,
		sql:         infra.NewSQLRunner(pool, logger),
		lockTimeout: lockTimeout,
	}
}

// InTx runs fn in a READ COMMITTED transaction.
func (s *Store) InTx(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, false, fn)
}

// ReadTx runs fn in a read-only REPEATABLE READ transaction so every
// statement sees one snapshot.
func (s *Store) ReadTx(ctx context.Context, fn func(uow domain.UnitOfWork) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, true, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, readOnly bool, fn func(uow domain.UnitOfWork) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return mapError(fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	runner := s.sql.With(tx)
	if !readOnly && s.lockTimeout > 0 {
		timeout := fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())
		if _, err := runner.Exec(ctx, sqlinline.QSetLockTimeout, timeout); err != nil {
			return mapError(fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	if err := fn(&unitOfWork{sql: runner}); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit: %w", err))
	}
	return nil
}

type unitOfWork struct {
	sql *infra.SQLRunner
}

func (u *unitOfWork) Inventory() domain.InventoryStore { return &InventoryRepositoryPG{sql: u.sql} }
func (u *unitOfWork) Orders() domain.OrderStore        { return &OrderRepositoryPG{sql: u.sql} }
func (u *unitOfWork) Ledger() domain.LedgerStore       { return &LedgerRepositoryPG{sql: u.sql} }
func (u *unitOfWork) Outbox() domain.OutboxStore       { return &OutboxRepositoryPG{sql: u.sql} }

// mapError translates lock and constraint SQLSTATEs into domain kinds while
// keeping the driver error reachable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40P01": // lock_not_available, deadlock_detected
			return errors.Join(domain.ErrLockTimeout, err)
		case "23503": // foreign_key_violation
			return errors.Join(domain.ErrNotFound, err)
		case "23514", "22003": // check_violation, numeric_value_out_of_range
			return errors.Join(domain.ErrInvalidRequest, err)
		}
	}
	return err
}

var _ domain.Store = (*Store)(nil)
