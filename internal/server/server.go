// Package server wires the application together and runs the HTTP server.
//
// This is the composition root: configuration goes in, and every concrete
// dependency (database, cache, services, handlers) is built here and
// nowhere else.
//
// DEPENDENCY CHAIN:
//
//	config ─┬─ sqlite.DB ──────────┬─ AuthService ─────── AuthHandler
//	        ├─ RedisCache (opt.) ──┼─ ConnectionService ─ ConnectionHandler
//	        └─ GitHubProvider (opt.)└─ ProfileService ──── ProfileHandler
//
// Handlers receive services; services receive repository interfaces. The
// *sqlite.DB value is passed as all three repositories.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/mentorship-platform/internal/auth"
	"github.com/sakif/mentorship-platform/internal/cache"
	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/handler"
	"github.com/sakif/mentorship-platform/internal/middleware"
	sqliteRepo "github.com/sakif/mentorship-platform/internal/repository/sqlite"
	"github.com/sakif/mentorship-platform/internal/sanitize"
	"github.com/sakif/mentorship-platform/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown: the database and, when configured, the Redis client.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	cache  *cache.RedisCache // nil when REDIS_ADDR is empty
}

// New opens the database, connects the optional cache and builds the
// routes. On error everything opened so far is closed again.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Redis.Addr != "" {
		s.cache = cache.NewRedisCache(cfg)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := s.cache.Ping(ctx)
		cancel()
		if err != nil {
			// Search reads through to SQLite while Redis is away.
			logger.Warn("redis unreachable at startup, continuing",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("profile search cache enabled", slog.String("addr", cfg.Redis.Addr))
		}
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes builds the service graph and mounts every route.
//
// ROUTES:
//
//	GET    /healthz                   public
//	POST   /auth/register             public
//	POST   /auth/login                public
//	GET    /auth/github/login         public, only with GitHub configured
//	GET    /auth/github/callback      public, only with GitHub configured
//	GET    /auth/me                   bearer token
//	GET    /profile                   bearer token (search)
//	POST   /profile                   bearer token (partial update)
//	DELETE /profile                   bearer token (delete account)
//	GET    /profile/me                bearer token
//	GET    /profile/user/{userID}     bearer token
//	GET    /connections               bearer token
//	POST   /connections/request       bearer token
//	POST   /connections/accept/{id}   bearer token
//	POST   /connections/reject/{id}   bearer token
//	POST   /connections/cancel/{id}   bearer token
//	DELETE /connections/{id}          bearer token
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger can print the id; Recoverer sits inside
// the logger so a panic is logged as the 500 it becomes.
func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)
	sanitizer := sanitize.New()

	// Interface values stay nil unless the cache exists. Assigning a nil
	// *RedisCache would produce a non-nil interface.
	var (
		profileCache service.ProfileCache
		cachePinger  handler.Pinger
	)
	if s.cache != nil {
		profileCache = s.cache
		cachePinger = s.cache
	}

	var github handler.GitHubAuthenticator
	if cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, sanitizer, profileCache, s.logger)
	connectionService := service.NewConnectionService(s.db, s.db, s.logger)
	profileService := service.NewProfileService(s.db, s.db, connectionService, profileCache, sanitizer, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	connectionHandler := handler.NewConnectionHandler(connectionService, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, cachePinger, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// === Public Routes ===
	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)

		if authHandler.GitHubEnabled() {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Info("GitHub sign-in disabled: GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET not set")
		}

		r.With(auth.RequireAuth(authService, s.logger)).Get("/me", authHandler.HandleMe)
	})

	// === Protected Routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService, s.logger))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.HandleSearch)
			r.Post("/", profileHandler.HandleUpsert)
			r.Delete("/", profileHandler.HandleDelete)
			r.Get("/me", profileHandler.HandleMe)
			r.Get("/user/{userID}", profileHandler.HandleGetByUserID)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.HandleList)
			r.Post("/request", connectionHandler.HandleRequest)
			r.Post("/accept/{id}", connectionHandler.HandleAccept)
			r.Post("/reject/{id}", connectionHandler.HandleReject)
			r.Post("/cancel/{id}", connectionHandler.HandleCancel)
			r.Delete("/{id}", connectionHandler.HandleRemove)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and releases the database and cache.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("database", s.config.DB.Path),
			slog.Bool("cache", s.cache != nil),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the cache client and the database. Start calls it on exit.
func (s *Server) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("closing redis client", slog.String("error", err.Error()))
		}
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", slog.String("error", err.Error()))
	}
}
