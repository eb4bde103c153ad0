package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"crowdfund/internal/http/handlers"
	"crowdfund/internal/middleware"
)

// Options configures the router around the handlers.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	// RateLimitPerMin caps donation and vote writes per client IP. Zero
	// disables the limit.
	RateLimitPerMin int
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// StaticDir serves stored proofs under /static when set.
	StaticDir string
	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxy bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.AuthJWT(app.JWTSecret),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	limited := func(next http.Handler) http.Handler { return next }
	if opts.RateLimitPerMin > 0 {
		limited = middleware.RateLimit(opts.RateLimitPerMin, time.Minute)
	}

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats", app.StatsSummary)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	r.Post("/v1/sessions", app.SessionsCreate)

	r.Route("/v1/users", func(r chi.Router) {
		r.Post("/", app.UsersCreate)
		r.Get("/{id}", app.UsersGet)
		r.Delete("/{id}", app.UsersDelete)
	})

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.Post("/", app.CampaignsCreate)
		r.Get("/", app.CampaignsList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.CampaignsGet)
			r.Delete("/", app.CampaignsDelete)
			r.Post("/review", app.CampaignsReview)
			r.Post("/active", app.CampaignsSetActive)
			r.Post("/complete", app.CampaignsComplete)
			r.With(limited).Post("/donations", app.DonationsCreate)
			r.Get("/donations", app.DonationsList)
			r.Get("/transactions", app.TransactionsList)
			r.Post("/milestones", app.MilestonesCreate)
			r.Get("/milestones", app.MilestonesList)
		})
	})

	r.Route("/v1/milestones/{id}", func(r chi.Router) {
		r.Get("/", app.MilestonesGet)
		r.Delete("/", app.MilestonesDelete)
		r.Post("/proof", app.MilestonesUploadProof)
		r.Post("/submit", app.MilestonesSubmit)
		r.With(limited).Post("/votes", app.VotesCast)
		r.Get("/votes", app.VotesList)
		r.Post("/finalize", app.MilestonesFinalize)
		r.Post("/payout", app.MilestonesPayout)
	})

	return r
}
