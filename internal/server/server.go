// Package server wires the HTTP surface: router, middleware, handlers, and
// graceful lifecycle. It is the composition root; every dependency chain is
// assembled in New, and main.go only supplies config and a logger.
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

	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/handler"
	"github.com/perfpulse/pulselink/internal/metrics"
	"github.com/perfpulse/pulselink/internal/middleware"
	"github.com/perfpulse/pulselink/internal/service"
	"github.com/perfpulse/pulselink/internal/store"
	sqlitestore "github.com/perfpulse/pulselink/internal/store/sqlite"
)

// Config holds everything the server needs to start.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the document store. The store is closed
// during shutdown so the WAL is flushed and the file lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	docs   store.Store
}

// New opens the store and assembles the full dependency chain: store into
// services, services into handlers, handlers onto routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	docs, err := sqlitestore.New(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		docs:   docs,
	}
	if err := s.setupRoutes(); err != nil {
		docs.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures middleware and the whole route tree.
//
// Middleware order: RequestID and RealIP first so the logger sees them,
// then logging with metrics, then Recoverer so panics are logged as 500s.
func (s *Server) setupRoutes() error {
	mgr := metrics.New()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger, mgr))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	pins := auth.NewPINService()

	identities := service.NewIdentityService(s.docs, pins, mgr, s.logger)
	relations := service.NewRelationshipService(s.docs, mgr, s.logger)
	snapshots := service.NewSnapshotService(s.docs, mgr, s.logger)

	authHandler := handler.NewAuthHandler(identities, tokens, s.logger)
	athleteHandler := handler.NewAthleteHandler(identities, s.logger)
	teamHandler := handler.NewTeamHandler(relations, s.logger)
	familyHandler := handler.NewFamilyHandler(relations, s.logger)
	snapshotHandler := handler.NewSnapshotHandler(snapshots, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Handle("/metrics", mgr.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Public: registration, login, and the code-addressed reads where
		// the code itself is the capability.
		r.Post("/athletes/register", authHandler.HandleRegisterAthlete)
		r.Post("/athletes/login", authHandler.HandleLoginAthlete)
		r.Post("/coaches/register", authHandler.HandleRegisterCoach)
		r.Post("/coaches/login", authHandler.HandleLoginCoach)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/snapshots/{code}", snapshotHandler.HandleResolve)
		r.Get("/families/{code}/summary/weekly", familyHandler.HandleWeeklySummary)
		r.Get("/families/{code}/calendar", familyHandler.HandleCalendar)

		// Athlete session required.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, auth.RoleAthlete))
			r.Post("/logs/{log}/records", athleteHandler.HandleAppendRecord)
			r.Get("/summary/weekly", athleteHandler.HandleWeeklySummary)
			r.Post("/teams/{code}/join", teamHandler.HandleJoinTeam)
			r.Post("/families", familyHandler.HandleCreateFamily)
			r.Put("/families/{code}", familyHandler.HandleEnsureFamily)
			r.Post("/families/{code}/children", familyHandler.HandleLinkChild)
			r.Post("/snapshots", snapshotHandler.HandleCreate)
		})

		// Coach session required.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, auth.RoleCoach))
			r.Post("/teams", teamHandler.HandleCreateTeam)
			r.Get("/teams/{code}", teamHandler.HandleGetTeam)
		})

		// Any authenticated session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", athleteHandler.HandleMe)
			r.Get("/families/{code}", familyHandler.HandleGetFamily)
		})
	})

	return nil
}

// Start runs the server until SIGINT or SIGTERM, then drains in-flight
// requests before closing the store.
func (s *Server) Start() error {
	defer s.docs.Close()

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
