package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	potel "github.com/Strob0t/professor/internal/adapter/otel"
	"github.com/Strob0t/professor/internal/middleware"
	"github.com/Strob0t/professor/internal/port/cache"
)

// RouterConfig collects everything the router mounts.
type RouterConfig struct {
	Handlers    *Handlers
	CORSOrigin  string
	ServiceName string
	WebSocket   http.HandlerFunc // optional /ws endpoint
	MCP         http.Handler     // optional /mcp endpoint
	StaticDir   string           // optional front-end served at /

	// Idempotency, when set, replays POST responses for a repeated Idempotency-Key.
	Idempotency    cache.Cache
	IdempotencyTTL time.Duration
}

// apiTimeout bounds plain API requests; streaming endpoints are mounted outside it.
const apiTimeout = 30 * time.Second

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(CORS(cfg.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(potel.HTTPMiddleware(cfg.ServiceName))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Group(func(r chi.Router) {
		r.Use(SecurityHeaders)
		r.Use(chimw.Timeout(apiTimeout))
		if cfg.Idempotency != nil {
			r.Use(middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL))
		}
		MountRoutes(r, cfg.Handlers)
	})

	if cfg.WebSocket != nil {
		r.Get("/ws", cfg.WebSocket)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/research", h.StartResearch)
		r.Get("/research/{id}/status", h.GetStatus)
		r.Get("/research/{id}/result", h.GetResult)
		r.Get("/tasks", h.ListTasks)
		r.Get("/health", h.Health)
	})
}
