// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and the logger, then:
//
//	Server.New() creates: sqlite.DB → stores → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tahircanyildiz/blog-website/internal/auth"
	"github.com/tahircanyildiz/blog-website/internal/config"
	"github.com/tahircanyildiz/blog-website/internal/handler"
	"github.com/tahircanyildiz/blog-website/internal/middleware"
	sqliteRepo "github.com/tahircanyildiz/blog-website/internal/repository/sqlite"
	"github.com/tahircanyildiz/blog-website/internal/service"
)

// Version is reported by the API welcome document.
const Version = "1.0.0"

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection (db). When the server shuts down,
// we must close this connection to flush any pending writes and release the file lock.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// DEPENDENCY INJECTION & WIRING:
//  1. Open the database (sqlite.New) and run migrations
//  2. Build the auth utilities (tokens, passwords, limiter, optional GitHub)
//  3. Build one service per resource from its store
//  4. Build the handlers and wire them to routes
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if err := ensureDBDir(cfg.DBPath); err != nil {
		return nil, err
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// ensureDBDir creates the directory of a file-backed database (like `mkdir -p`).
func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:") {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                       → database ping
//	GET    /metrics                      → Prometheus exposition
//	GET    /api                          → welcome document
//	POST   /api/auth/register            → create account
//	POST   /api/auth/login               → password login (rate limited)
//	GET    /api/auth/me                  → current user            [auth]
//	GET    /api/auth/github/login        → GitHub redirect         (when configured)
//	GET    /api/auth/github/callback     → GitHub sign-in          (when configured)
//	GET    /api/blogs                    → list summaries
//	GET    /api/blogs/{id}               → read post, count view
//	POST   /api/blogs                    → create post             [admin]
//	PUT    /api/blogs/{id}               → update post             [admin]
//	DELETE /api/blogs/{id}               → delete post             [admin]
//	GET    /api/about                    → about profile
//	PUT    /api/about                    → create/update profile   [admin]
//	POST   /api/contact                  → submit message
//	GET    /api/contact                  → inbox                   [admin]
//	GET    /api/contact/{id}             → open message            [admin]
//	DELETE /api/contact/{id}             → delete message          [admin]
//	GET    /api/settings                 → site settings
//	PUT    /api/settings                 → update settings         [admin]
//	PUT    /api/settings/social-media    → replace social links    [admin]
//	PUT    /api/settings/contact-info    → update contact block    [admin]
//	*      everything else               → SPA bundle (when STATIC_DIR is set)
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
//  1. RequestID: assigns unique ID to each request (for tracing)
//  2. RealIP: extracts real client IP from proxy headers (TRUST_PROXY only)
//  3. Logger and Metrics: observe the final status of every request
//  4. Recoverer: catches panics and returns 500 instead of crashing
//  5. CORS, then the request timeout
func (s *Server) setupRoutes() error {
	resp := handler.NewResponder(s.logger, !s.config.IsProduction())

	// === Auth utilities ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.JWTExpire)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()
	limiter := auth.NewLoginLimiter(s.config.LoginRateLimit, s.config.LoginRateWindow)

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	// === Services ===
	// Each service receives the repository interface, never *sqlite.DB.
	users := s.db.Users()
	authService := service.NewAuthService(users, tokens, passwords, s.logger)
	blogService := service.NewBlogService(s.db.Blogs(), s.logger)
	aboutService := service.NewAboutService(s.db.About(), s.logger)
	contactService := service.NewContactService(s.db.Contacts(), s.logger)
	settingsService := service.NewSettingsService(s.db.Settings(), s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, github, limiter, resp, s.logger)
	blogHandler := handler.NewBlogHandler(blogService, resp)
	aboutHandler := handler.NewAboutHandler(aboutService, resp)
	contactHandler := handler.NewContactHandler(contactService, resp)
	settingsHandler := handler.NewSettingsHandler(settingsService, resp)
	siteHandler := handler.NewSiteHandler(s.db, Version, resp)

	requireAuth := auth.RequireAuth(tokens, users, resp.Error)
	requireAdmin := auth.RequireAdmin(resp.Error)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.config.RequestTimeout > 0 {
		s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	}

	// === Operational endpoints ===
	s.router.Get("/health", siteHandler.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.NotFound(siteHandler.HandleNotFound)
		r.MethodNotAllowed(siteHandler.HandleMethodNotAllowed)

		r.Get("/", siteHandler.HandleWelcome)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", blogHandler.HandleList)
			r.Get("/{id}", blogHandler.HandleGetByID)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Post("/", blogHandler.HandleCreate)
				r.Put("/{id}", blogHandler.HandleUpdate)
				r.Delete("/{id}", blogHandler.HandleDelete)
			})
		})

		r.Route("/about", func(r chi.Router) {
			r.Get("/", aboutHandler.HandleGet)
			r.With(requireAuth, requireAdmin).Put("/", aboutHandler.HandleUpsert)
		})

		r.Route("/contact", func(r chi.Router) {
			r.Post("/", contactHandler.HandleCreate)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Get("/", contactHandler.HandleList)
				r.Get("/{id}", contactHandler.HandleGetByID)
				r.Delete("/{id}", contactHandler.HandleDelete)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth, requireAdmin)
				r.Put("/", settingsHandler.HandleUpdate)
				r.Put("/social-media", settingsHandler.HandleUpdateSocialMedia)
				r.Put("/contact-info", settingsHandler.HandleUpdateContactInfo)
			})
		})
	})

	// === Frontend ===
	// With a built SPA configured, every non-API path serves it; otherwise the
	// JSON 404 applies everywhere.
	if s.config.StaticDir != "" {
		spa, err := handler.NewSPAHandler(s.config.StaticDir)
		if err != nil {
			return fmt.Errorf("loading SPA from %s: %w", s.config.StaticDir, err)
		}
		s.router.NotFound(spa.ServeHTTP)
	} else {
		s.router.NotFound(siteHandler.HandleNotFound)
	}

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	// Ensure the database is closed when the server stops.
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Channel to receive server errors
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
			slog.Bool("githubLogin", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	// Block until we receive a signal or server error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
