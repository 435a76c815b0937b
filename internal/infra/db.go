package infra

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 10 * time.Second

// NewDBPool opens the pgx pool for cfg.DatabaseURL. The process name is
// reported to PostgreSQL as application_name, which is how lock waits in
// pg_stat_activity are traced back to api or worker connections.
func NewDBPool(ctx context.Context, cfg *Config, process string) (*pgxpool.Pool, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, errors.New("db: DATABASE_URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Join(errors.New("db: parse DATABASE_URL"), err)
	}
	poolCfg.MaxConns = int32(max(cfg.DBMaxConns, 2))
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	if process != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = "marketfund-" + process
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Join(errors.New("db: connect"), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(errors.New("db: ping"), err)
	}
	return pool, nil
}
