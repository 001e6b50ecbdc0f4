// Package server exposes saved agent results, on-demand analysis and the
// model routing table over a huma REST API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/pipeline"
	"stock-analysis-agent/internal/types"
)

// Analyzer runs one analysis request end to end.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*types.Recommendation, error)
}

// Rebuilder is implemented by analyzers that cache model choices.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

type Server struct {
	results  interfaces.ResultStore
	analyzer Analyzer
	models   interfaces.ModelResolver
}

func New(results interfaces.ResultStore, analyzer Analyzer, models interfaces.ModelResolver) *Server {
	return &Server{
		results:  results,
		analyzer: analyzer,
		models:   models,
	}
}

// Register adds every route to api. Analysis and model routes are skipped
// when their backing service is nil.
func (s *Server) Register(api huma.API) {
	s.registerResultRoutes(api)
	if s.analyzer != nil {
		s.registerAnalyzeRoutes(api)
	}
	if s.models != nil {
		s.registerModelRoutes(api)
	}
}

// Handler builds the HTTP handler with OpenAPI docs served at /docs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	config := huma.DefaultConfig("Stock Analysis Agent API", "1.0.0")
	config.Info.Description = "Saved agent results, on-demand stock analysis and model routing."
	api := humago.New(mux, config)
	s.Register(api)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "REST API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down REST API")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
