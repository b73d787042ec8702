// Package api provides the HTTP API server and handlers for the library.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// LoginRate and LoginBurst bound authentication attempts per client IP
	// per minute. Zero values use the defaults.
	LoginRate  int
	LoginBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services     *Services
	db           Pinger
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	loginLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, db Pinger, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = 20
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Library API", Version)
	humaConfig.Info.Description = "Members, books and book transactions"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler(logger)

	s := &Server{
		services:     services,
		db:           db,
		router:       router,
		api:          api,
		logger:       logger,
		loginLimiter: NewRateLimiter(opts.LoginRate, time.Minute, opts.LoginBurst),
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerBookRoutes()
	s.registerMemberRoutes()
	s.registerTransactionRoutes()
	s.registerDashboardRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the underlying huma API.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

var bearerSecurity = []map[string][]string{{"bearer": {}}}
