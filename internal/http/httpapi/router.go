package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"marketfund/internal/http/handlers"
	"marketfund/internal/middleware"
)

// Options configures the middleware chain.
type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger, app.Metrics),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Route("/campaigns/{id}", func(r chi.Router) {
			r.Get("/", app.CampaignGet)
			r.Get("/transparency", app.CampaignTransparency)
			r.Get("/audit", app.CampaignAudit)
			r.Get("/donations", app.DonationsRecent)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthJWT(opts.JWTSecret))
				r.Post("/donations", app.DonationsCreate)
				r.Post("/expenditures", app.ExpendituresCreate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret))
			r.Post("/orders", app.OrdersCreate)
		})
	})

	return r
}
