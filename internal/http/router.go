package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"photoshoot-server/internal/http/handlers"
	"photoshoot-server/internal/infra"
	"photoshoot-server/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/generations", func(r chi.Router) {
		r.Post("/", app.GenerationsCreate)
		r.Get("/{id}", app.GenerationsGet)
	})

	r.Route("/v1/photos", func(r chi.Router) {
		r.Post("/{id}/validate", app.PhotosValidate)
		r.Post("/{id}/bypass", app.PhotosBypass)
	})

	r.Route("/v1/results", func(r chi.Router) {
		r.Get("/", app.ResultsList)
		r.Put("/{id}/profile", app.ResultsSetProfile)
	})

	return r
}
