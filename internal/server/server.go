// Package server exposes the query orchestrator over HTTP and WebSocket.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/datenollm/internal/dateno"
	"github.com/ziadkadry99/datenollm/internal/journal"
	"github.com/ziadkadry99/datenollm/internal/metrics"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
)

// Config holds server configuration.
type Config struct {
	Port           int
	RequestTimeout time.Duration
	AuthToken      string // bearer token required on /api and /ws when set
	AllowAll       bool   // allow all CORS origins (dev mode)
}

// Deps are the optional collaborators of the server. A nil Journal skips
// journaling; a nil Dateno client disables /api/dateno_search.
type Deps struct {
	Journal *journal.Store
	Dateno  *dateno.Client
	Page    dateno.Page
	Metrics *metrics.QueryMetrics
	Logger  logrus.FieldLogger
}

// Server serves the datenollm API.
type Server struct {
	cfg        Config
	orch       *orchestrator.Orchestrator
	deps       Deps
	log        logrus.FieldLogger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, orch *orchestrator.Orchestrator, deps Deps) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	if deps.Page.Limit == 0 {
		deps.Page = dateno.DefaultPage()
	}
	log := deps.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	s := &Server{cfg: cfg, orch: orch, deps: deps, log: log}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		// WebSocket connections outlive the request timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
			r.Post("/api/ask", s.handleAsk)
			r.Post("/api/filter", s.handleFilter)
			r.Post("/api/like", s.handleLike)
			r.Get("/api/logs", s.handleLogs)
			r.Get("/api/settings", s.handleSettings)
			r.Post("/api/dateno_search", s.handleDatenoSearch)
			r.Post("/api/results2html", s.handleResultsHTML)
			if s.deps.Journal != nil {
				journal.RegisterRoutes(r, s.deps.Journal)
			}
		})
	})

	return r
}

// requireToken enforces the bearer token when one is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.WithField("addr", addr).Info("datenollm server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
