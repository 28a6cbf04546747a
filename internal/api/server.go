// Package api provides the HTTP API server and handlers for the Elephoto storefront.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/elephoto/elephoto-server/internal/domain"
	"github.com/elephoto/elephoto-server/internal/ratelimit"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
	"github.com/elephoto/elephoto-server/internal/validation"
)

// DefaultMaxWebhookBytes bounds a payment notification body.
const DefaultMaxWebhookBytes = 64 << 10

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping() error
}

// Config holds the HTTP-level settings of the server.
type Config struct {
	PublicURL       string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	MaxWebhookBytes int64
	// SessionTTL is the session cookie lifetime; it should match the session store.
	SessionTTL time.Duration
	Version    string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg        Config
	db         Pinger
	sessions   store.SessionStore
	services   *Services
	storage    *StorageServices
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	validator  *validation.Validator
	logger     *slog.Logger

	loginRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	cfg Config,
	db Pinger,
	sessions store.SessionStore,
	services *Services,
	storage *StorageServices,
	sseManager *sse.Manager,
	logger *slog.Logger,
) *Server {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = domain.SessionTTL
	}
	if cfg.MaxWebhookBytes <= 0 {
		cfg.MaxWebhookBytes = DefaultMaxWebhookBytes
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}

	router := chi.NewRouter()

	s := &Server{
		cfg:        cfg,
		db:         db,
		sessions:   sessions,
		services:   services,
		storage:    storage,
		sseManager: sseManager,
		router:     router,
		validator:  validation.New(),
		logger:     logger,

		// Admin login: 10 attempts per minute per IP.
		loginRateLimiter: ratelimit.NewPerInterval(10, time.Minute, 5),
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Elephoto API", cfg.Version)
	humaConfig.Info.Description = "Photo storefront: browse albums by access code, buy originals."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	if sseManager != nil && services.Access != nil {
		s.sseHandler = sse.NewHandler(sseManager, s.resolveEventAlbum, logger)
	}

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used for OpenAPI export and tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background workers owned by the server.
func (s *Server) Close() {
	s.loginRateLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 && s.cfg.PublicURL != "" {
		origins = []string{s.cfg.PublicURL}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Use(sessionMiddleware(s.cfg.SessionTTL, strings.HasPrefix(s.cfg.PublicURL, "https://")))
	s.router.Use(adminMiddleware(s.services.AdminAuth))
}

// registerRoutes wires every route. JSON endpoints go through huma; uploads,
// downloads, webhooks and the event stream are raw chi handlers.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerGalleryRoutes()
	s.registerCartRoutes()
	s.registerCheckoutRoutes()
	s.registerAdminRoutes()

	s.router.Get("/api/v1/photos/{id}/original", s.handleDownloadOriginal)
	s.router.HandleFunc("/webhooks/stripe", s.handleStripeWebhook)

	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	if s.storage != nil && s.storage.Displays != nil {
		s.router.Get("/media/*", s.handleMedia)
	}

	s.router.Post("/api/v1/admin/albums", s.handleCreateAlbum)
}

// resolveEventAlbum ties an SSE connection to the album its session unlocked.
func (s *Server) resolveEventAlbum(r *http.Request) (string, error) {
	sessionID, err := GetSessionID(r.Context())
	if err != nil {
		return "", err
	}
	return s.services.Access.ActiveAlbum(r.Context(), sessionID)
}
