package server

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kostadinov1/gym-backend/internal/auth"
	"github.com/kostadinov1/gym-backend/internal/metrics"
)

// Options carries the optional parts of the HTTP surface. Zero values
// disable them.
type Options struct {
	// Limiters throttles /register and /token per client IP.
	Limiters *LimiterStore
	// Metrics records request metrics and is served at MetricsPath.
	Metrics     *metrics.Manager
	MetricsPath string
	// MCP is mounted at /mcp behind the bearer guard.
	MCP http.Handler
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	issuer *auth.Issuer
	opts   Options
	log    *slog.Logger
	now    func() time.Time
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, issuer *auth.Issuer, opts Options, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		issuer: issuer,
		opts:   opts,
		log:    log,
		now:    time.Now,
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
	if len(s.opts.TrustedProxies) > 0 {
		s.router.Use(TrustedRealIP(s.opts.TrustedProxies))
	}
	s.router.Use(RequestLogging(s.log))
	if s.opts.Metrics != nil {
		s.router.Use(Instrument(s.opts.Metrics))
	}
	s.router.Use(CORS)

	s.router.Get("/", s.handleRoot)
	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		s.router.Method(http.MethodGet, s.opts.MetricsPath, s.opts.Metrics.Handler())
	}

	// Credential endpoints (rate limited per client IP)
	s.router.Group(func(r chi.Router) {
		if s.opts.Limiters != nil {
			r.Use(RateLimit(s.opts.Limiters, s.opts.Metrics))
		}
		r.Post("/register", s.handleRegister)
		r.Post("/token", s.handleToken)
	})

	// Everything else requires a bearer token
	s.router.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.issuer, s.store, s.log))

		r.Get("/me", s.handleMe)

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", s.handleListExercises)
			r.Post("/", s.handleCreateExercise)
			r.Patch("/{id}", s.handleUpdateExercise)
			r.Delete("/{id}", s.handleDeleteExercise)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Get("/{id}", s.handleGetPlan)
			r.Patch("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
			r.Post("/{id}/routines", s.handleAddRoutine)
			r.Delete("/routines/{id}", s.handleDeleteRoutine)
			r.Post("/routines/{id}/exercises", s.handleAddRoutineExercise)
			r.Delete("/routines/exercises/{id}", s.handleDeleteRoutineExercise)
		})

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/routines", s.handleListActiveRoutines)
			r.Get("/start/{id}", s.handleStartRoutine)
			r.Post("/finish", s.handleFinishSession)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleHistory)
			r.Get("/stats", s.handleStats)
			r.Get("/export", s.handleExport)
			r.Get("/{id}", s.handleGetSession)
			r.Put("/{id}", s.handleUpdateSession)
			r.Delete("/{id}", s.handleDeleteSession)
		})

		if s.opts.MCP != nil {
			r.Handle("/mcp", s.opts.MCP)
		}
	})
}
