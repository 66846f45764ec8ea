package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"wfmarket-sync/internal/handler"
	"wfmarket-sync/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler       *handler.Handler
	MarketHandler *handler.MarketHandler
	StatsHandler  *handler.StatsHandler
}

// New creates and configures the HTTP router. Every route is read-only.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Market data endpoints
		if cfg.MarketHandler != nil {
			r.Get("/items", cfg.MarketHandler.ListItems)
			r.Route("/items/{url_name}", func(r chi.Router) {
				r.Get("/", cfg.MarketHandler.GetItem)
				r.Get("/orders", cfg.MarketHandler.ListOrders)
			})

			r.Route("/sync", func(r chi.Router) {
				r.Get("/last", cfg.MarketHandler.LastSync)
				r.Get("/runs/{run_id}", cfg.MarketHandler.GetSyncRun)
			})
		}

		if cfg.StatsHandler != nil {
			r.Get("/stats", cfg.StatsHandler.GetStats)
		}
	})

	return r
}
