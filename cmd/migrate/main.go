package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"marketfund/internal/db"
	"marketfund/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "migrate")
	if cfg.StoreBackend != infra.StoreBackendPostgres {
		logger.Fatal().Str("backend", cfg.StoreBackend).Msg("migrate: nothing to do for this backend")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg, "migrate")
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: db connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate: failed")
	}
	logger.Info().Msg("migrate: schema applied")
}
