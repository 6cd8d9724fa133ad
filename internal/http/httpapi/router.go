package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter assembles the HTTP surface.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/styles", app.Styles)

	// Filesystem backend only: the API doubles as the blob endpoint.
	if app.Files != nil {
		r.Put("/v1/upload/direct", app.UploadDirect)
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(app.Files.BasePath())))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

		r.Get("/v1/me", app.Me)
		r.Post("/v1/generate", app.GenerateStart)
		r.Get("/v1/generate/{id}", app.GenerateStatus)
		r.Post("/v1/upload/target", app.UploadTarget)
		r.Get("/v1/credits", app.CreditsBalance)
		r.Get("/v1/credits/history", app.CreditsHistory)
	})

	return r
}
