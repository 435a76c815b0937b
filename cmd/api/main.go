package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"marketfund/internal/adapter"
	"marketfund/internal/http/handlers"
	httpapi "marketfund/internal/http/httpapi"
	"marketfund/internal/infra"
	"marketfund/internal/infra/geoip"
	"marketfund/internal/middleware"
	"marketfund/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")
	if err := cfg.RequireAuth(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := adapter.Open(ctx, cfg, "api", logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store")
	}
	defer backend.Close()

	var lookup middleware.CountryLookup
	if cfg.GeoIPDBPath != "" {
		resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("geoip disabled")
		} else {
			defer resolver.Close()
			lookup = resolver.CountryCode
		}
	}

	metrics := infra.NewMetrics()
	app := &handlers.App{
		Orders:       service.NewOrderCoordinator(backend.Store, logger, metrics),
		Funding:      service.NewFundingCoordinator(backend.Store, logger, metrics),
		Transparency: service.NewTransparencyQuery(backend.Store, logger, metrics),
		Metrics:      metrics,
		Logger:       logger,
		Ping:         backend.Ping,
	}
	router := httpapi.NewRouter(app, logger, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	logger.Info().Str("addr", server.Addr()).Str("backend", cfg.StoreBackend).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
