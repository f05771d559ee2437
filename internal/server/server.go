// Package server wires the dependency graph and defines all routes. It is
// the composition root: main.go only reads config and calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/clubhub/internal/auth"
	"github.com/sakif/clubhub/internal/handler"
	"github.com/sakif/clubhub/internal/middleware"
	sqliteRepo "github.com/sakif/clubhub/internal/repository/sqlite"
	"github.com/sakif/clubhub/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
// sqlite.DB → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService()
	tokens := auth.NewTokenService()

	accounts, err := service.NewAccountService(s.db, passwords, tokens, s.logger)
	if err != nil {
		return fmt.Errorf("creating account service: %w", err)
	}
	directory := service.NewDirectoryService(s.db, s.db, s.db, s.logger)

	accountHandler := handler.NewAccountHandler(accounts, s.logger)
	clubHandler := handler.NewClubHandler(directory, s.logger)
	userHandler := handler.NewUserHandler(directory, s.logger)
	postHandler := handler.NewPostHandler(directory, s.logger)

	requireSession := auth.RequireSession(accounts)

	s.router.Route("/api", func(r chi.Router) {
		// Account lifecycle
		r.Post("/register", accountHandler.HandleRegister)
		r.Post("/login", accountHandler.HandleLogin)
		r.Post("/session", accountHandler.HandleRenewSession)

		// Clubs
		r.Get("/clubs", clubHandler.HandleList)
		r.Post("/clubs", clubHandler.HandleCreate)
		r.Get("/clubs/{id}", clubHandler.HandleGet)
		r.Delete("/clubs/{id}", clubHandler.HandleDelete)

		// Users
		r.Get("/users", userHandler.HandleList)
		r.Get("/users/{id}", userHandler.HandleGet)
		r.Delete("/users/{id}", userHandler.HandleDelete)

		// Posts
		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/{id}", postHandler.HandleGet)
		r.Delete("/posts/{id}", postHandler.HandleDelete)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/me", accountHandler.HandleMe)
			r.Post("/posts", postHandler.HandleCreate)
			r.Post("/clubs/{id}/favorite", clubHandler.HandleFavorite)
			r.Post("/posts/{id}/like", postHandler.HandleLike)
		})
	})

	return nil
}

// Router exposes the configured router, mainly for handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; Close
// exists for callers that never run Start, such as tests.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
