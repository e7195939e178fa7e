package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"levelforge/internal/http/handlers"
	"levelforge/internal/infra"
	"levelforge/internal/middleware"
	"levelforge/internal/ratelimit"
)

// classify assigns the admission class: reads are cheap, everything that
// can start work counts as generation traffic.
func classify(r *stdhttp.Request) ratelimit.Class {
	if r.Method == stdhttp.MethodGet {
		return ratelimit.ClassRead
	}
	return ratelimit.ClassGenerate
}

func NewRouter(app *handlers.App, limiter *ratelimit.Limiter, cfg *infra.Config, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger, lookup))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.CORSOrigins))
	}
	r.Use(middleware.RateLimit(limiter, classify, cfg.RateLimitExempt, cfg.DefaultLocale))

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/generate", app.Generate)

	r.Route("/v1/batch", func(r chi.Router) {
		r.Post("/", app.StartBatch)
		r.Post("/validate", app.ValidateBatch)
		r.Delete("/{id}", app.CancelBatch)
	})

	r.Get("/v1/jobs/{id}", app.JobStatus)

	return r
}
