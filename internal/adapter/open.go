// Package adapter selects the storage backend named by configuration.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketfund/internal/adapter/memstore"
	"marketfund/internal/adapter/repo"
	"marketfund/internal/domain"
	"marketfund/internal/infra"
)

// Backend is an opened store plus its lifecycle hooks.
type Backend struct {
	Store domain.Store
	Ping  func(ctx context.Context) error
	Close func()
}

// Open connects the configured backend on behalf of process. The memory
// backend is seeded from cfg.SeedFile when set.
func Open(ctx context.Context, cfg *infra.Config, process string, logger zerolog.Logger) (*Backend, error) {
	switch cfg.StoreBackend {
	case infra.StoreBackendMemory:
		store := memstore.New(memstore.WithLockTimeout(cfg.LockTimeout))
		if cfg.SeedFile != "" {
			if err := Seed(store, cfg.SeedFile); err != nil {
				return nil, err
			}
			logger.Info().Str("file", cfg.SeedFile).Msg("memory store seeded")
		}
		return &Backend{Store: store, Close: func() {}}, nil
	case infra.StoreBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg, process)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: repo.NewStore(pool, logger, cfg.LockTimeout),
			Ping:  pool.Ping,
			Close: pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

type seedFile struct {
	Products []struct {
		ID        string          `json:"id"`
		Available int             `json:"available"`
		Price     decimal.Decimal `json:"price"`
	} `json:"products"`
	Campaigns []struct {
		ID         string                  `json:"id"`
		Title      string                  `json:"title"`
		GoalAmount decimal.Decimal         `json:"goal_amount"`
		State      domain.CampaignState    `json:"state"`
		Moderation domain.ModerationStatus `json:"moderation_status"`
		EndsAt     *time.Time              `json:"ends_at"`
	} `json:"campaigns"`
}

// Seed loads products and campaigns from a JSON file into store.
func Seed(store *memstore.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	for _, p := range seed.Products {
		if p.ID == "" || p.Available < 0 {
			return fmt.Errorf("seed product %q: invalid", p.ID)
		}
		store.SeedProduct(domain.Product{ID: p.ID, Available: p.Available, Price: p.Price})
	}
	for _, c := range seed.Campaigns {
		if c.ID == "" {
			return fmt.Errorf("seed campaign: id is required")
		}
		state, moderation := c.State, c.Moderation
		if state == "" {
			state = domain.CampaignStateActive
		}
		if moderation == "" {
			moderation = domain.ModerationApproved
		}
		store.SeedCampaign(domain.Campaign{
			ID:         c.ID,
			Title:      c.Title,
			GoalAmount: c.GoalAmount,
			State:      state,
			Moderation: moderation,
			EndsAt:     c.EndsAt,
		})
	}
	return nil
}
