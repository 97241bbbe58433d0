// Package server exposes the vetting framework over HTTP.
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
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vettingai/vetting-go/internal/config"
	"github.com/vettingai/vetting-go/internal/llm"
	"github.com/vettingai/vetting-go/internal/vetting"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

type Server struct {
	cfg       *config.Config
	router    *chi.Mux
	server    *http.Server
	providers map[string]vetting.Provider
}

// New builds a server with one adapter per configured provider family. The
// default provider must be configured; the others are optional.
func New(cfg *config.Config) (*Server, error) {
	providers := make(map[string]vetting.Provider)
	for _, name := range []string{config.ProviderOpenAI, config.ProviderClaude, config.ProviderGemini} {
		pc, err := cfg.ProviderFor(name)
		if err != nil {
			continue
		}
		provider, err := llm.NewProvider(pc)
		if err != nil {
			return nil, fmt.Errorf("create %s provider: %w", name, err)
		}
		providers[name] = provider
	}
	if _, ok := providers[cfg.Vetting.DefaultProvider]; !ok {
		return nil, fmt.Errorf("default provider %q is not configured", cfg.Vetting.DefaultProvider)
	}

	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		providers: providers,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	// A vetting run can make up to 2*maxAttempts model calls.
	s.router.Use(middleware.Timeout(s.cfg.Server.WriteTimeout))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/vet", s.handleVet)
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("starting server", "address", s.server.Addr)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		slog.Info("starting shutdown", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	return nil
}
