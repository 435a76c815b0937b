package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"marketfund/internal/infra"
	"marketfund/internal/middleware"
	"marketfund/internal/service"
)

// App carries the dependencies shared by every handler.
type App struct {
	Orders       *service.OrderCoordinator
	Funding      *service.FundingCoordinator
	Transparency *service.TransparencyQuery
	Metrics      *infra.Metrics
	Logger       zerolog.Logger
	// Ping reports storage readiness; nil means always ready.
	Ping func(ctx context.Context) error
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
