package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/syncengine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	engine *syncengine.Engine
	issuer *auth.Issuer
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. A nil issuer disables
// token issuance; an engine without a store answers sync calls with 503.
func New(engine *syncengine.Engine, issuer *auth.Issuer, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		engine: engine,
		issuer: issuer,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Token issuance (API key required)
	s.router.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/token", s.handleIssueToken)
	})

	// Sync endpoints (bearer token required)
	s.router.Route("/api/v1/sync", func(r chi.Router) {
		r.Use(RequireSync(s.engine))
		r.Use(Authenticate(s.issuer))
		r.Post("/push", s.handlePush)
		r.Get("/pull", s.handlePull)
	})
}
