// Package server exposes the pipeline's admin operations as an authenticated
// JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/config"
	"github.com/confops/sponsor-pipeline/internal/sponsor"
	"github.com/confops/sponsor-pipeline/internal/store"
	"github.com/confops/sponsor-pipeline/pkg/anthropic"
	"github.com/confops/sponsor-pipeline/pkg/linkedin"
)

// Server holds the dependencies shared by all handlers.
type Server struct {
	cfg     *config.Config
	store   store.Store
	roster  sponsor.Roster
	ai      anthropic.Client // nil when no API key is configured
	network linkedin.Client  // nil when network verification is not configured
}

// New creates a Server. ai and network may be nil; the corresponding
// endpoints then report the feature as unconfigured.
func New(cfg *config.Config, st store.Store, roster sponsor.Roster, ai anthropic.Client, network linkedin.Client) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		roster:  roster,
		ai:      ai,
		network: network,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Throttle(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Group(func(api chi.Router) {
		api.Use(s.authenticate)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(s.requireAdmin)
			admin.Post("/dedupe", s.handleDedupe)
			admin.Post("/tag-sponsors", s.handleTagSponsors)
			admin.Post("/merge-decision-makers", s.handleMergeDecisionMakers)
			admin.Post("/research", s.handleResearch)
		})

		api.Post("/companies", s.handleCreateCompany)
		api.Post("/companies/import", s.handleImport)
		api.Post("/companies/{id}/touches", s.handleCreateTouch)
		api.Post("/companies/{id}/connections", s.handleAddConnection)
		api.Post("/kb/query", s.handleKBQuery)
		api.Post("/auth/network/verify", s.handleNetworkVerify)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server listening", zap.Int("port", s.cfg.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server: shutdown")
	}
	zap.L().Info("server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
