package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pappi-calculator/authserver/config"
	"github.com/pappi-calculator/authserver/internal/db"
	"github.com/pappi-calculator/authserver/internal/handlers"
	"github.com/pappi-calculator/authserver/internal/mq"
	"github.com/pappi-calculator/authserver/internal/services"
	"github.com/pappi-calculator/authserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     mq.Backend
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Auth.SecretKey) == "" {
		_ = dbConn.Close()
		return nil, errors.New("SECRET_KEY is required")
	}

	issuer, err := services.NewTokenIssuer(
		cfg.Auth.SecretKey,
		cfg.Auth.Algorithm,
		time.Duration(cfg.Auth.AccessTokenExpireMinutes)*time.Minute,
		time.Duration(cfg.Auth.ClockSkewSeconds)*time.Second,
	)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	var eventsBackend mq.Backend
	var events *services.EventPublisher
	if cfg.Events.Backend != "" {
		eventsBackend, err = mq.NewBackend(ctx, &cfg)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		events = services.NewEventPublisher(eventsBackend)
	}

	estudianteRepo := store.NewEstudianteRepository(dbConn)
	hasher := services.NewBcryptHasher(cfg.Auth.BcryptCost)
	authService := services.NewAuthService(estudianteRepo, hasher, issuer, events)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/", handlers.Root)
	router.Get("/health", handlers.Healthz)
	handlers.AuthRouter(router, authService, issuer)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     eventsBackend,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	return s.httpServer.Close()
}
