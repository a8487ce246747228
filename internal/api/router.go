package api

import (
	"net/http"
	"sync"

	"splat/internal/render"
	"splat/internal/splat"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-gl/mathgl/mgl64"
)

// EngineInterface defines the splat engine methods used by the API.
// This interface enables mocking for tests without spinning up the full
// engine loop. Keep this minimal - only include methods the API layer
// actually calls.
type EngineInterface interface {
	// Emit launches one droplet from origin along dir.
	Emit(origin, dir mgl64.Vec3, ov *splat.Overrides)
	// EmitAmount launches count droplets spaced delayBetween seconds apart.
	EmitAmount(origin, dir mgl64.Vec3, count int, delayBetween float64, ov *splat.Overrides)
	// Snapshot returns the latest lock-free immutable snapshot (preferred for API reads)
	Snapshot() *splat.EngineSnapshot
	// Stats returns engine counters for the stats endpoint
	Stats() map[string]interface{}
	// Events returns the n most recent lifecycle events
	Events(n int) []splat.Event
	// GetSettings returns a copy of the current base settings
	GetSettings() splat.Settings
	// UpdateSettings overlays partial settings onto the base configuration
	UpdateSettings(ov *splat.Overrides) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the splat engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default development origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	engine EngineInterface

	// Frame renderer, created on first use. The gg context is not safe
	// for concurrent use, so render-and-encode runs under the mutex.
	renderMu sync.Mutex
	renderer *render.Renderer
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	// CORS configuration
	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{engine: cfg.Engine}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Engine state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/events", h.handleGetEvents)
		r.Get("/frame", h.handleGetFrame)

		// Emission
		r.Post("/emit", h.handleEmit)
		r.Post("/emit/burst", h.handleEmitBurst)

		// Configuration
		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handleUpdateSettings)
	})

	// Default route
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}
