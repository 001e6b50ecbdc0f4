package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/pipeline"
)

type AnalyzeInput struct {
	Body struct {
		UserID    string `json:"user_id,omitempty" doc:"User id; the configured default when empty"`
		SessionID string `json:"session_id,omitempty" doc:"Session id; generated when empty"`
		Query     string `json:"query" doc:"What to analyze, e.g. 'Please analyze AAPL'" minLength:"1" maxLength:"2000"`
	}
}

type AnalyzeOutput struct {
	Body struct {
		SessionID   string `json:"session_id"`
		StockSymbol string `json:"stock_symbol"`
		Action      string `json:"action" enum:"BUY,SELL,HOLD"`
		Report      string `json:"report"`
		Interrupted bool   `json:"interrupted"`
		DurationMS  int64  `json:"duration_ms"`
	}
}

type ModelsOutput struct {
	Body struct {
		Default string            `json:"default"`
		Models  map[string]string `json:"models"`
	}
}

func (s *Server) registerAnalyzeRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-stock",
		Method:      http.MethodPost,
		Path:        "/analyze",
		Summary:     "Run the full analysis pipeline",
		Description: "Runs every analysis team and returns the hedge fund manager's recommendation. Agent outputs are saved as they arrive.",
		Tags:        []string{"Analysis"},
	}, s.analyze)
}

func (s *Server) analyze(ctx context.Context, input *AnalyzeInput) (*AnalyzeOutput, error) {
	rec, err := s.analyzer.Analyze(ctx, pipeline.Request{
		UserID:    input.Body.UserID,
		SessionID: input.Body.SessionID,
		Query:     input.Body.Query,
	})
	if errors.Is(err, pipeline.ErrEmptyQuery) {
		return nil, huma.Error400BadRequest(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Analysis failed", err)
	}

	out := &AnalyzeOutput{}
	out.Body.SessionID = rec.SessionID
	out.Body.StockSymbol = rec.StockSymbol
	out.Body.Action = string(rec.Action)
	out.Body.Report = rec.Report
	out.Body.Interrupted = rec.Interrupted
	out.Body.DurationMS = rec.Duration.Milliseconds()
	return out, nil
}

func (s *Server) registerModelRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-models",
		Method:      http.MethodGet,
		Path:        "/models",
		Summary:     "Show the agent to model routing table",
		Tags:        []string{"Models"},
	}, func(ctx context.Context, _ *struct{}) (*ModelsOutput, error) {
		return s.modelTable(ctx), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reload-models",
		Method:      http.MethodPost,
		Path:        "/models/reload",
		Summary:     "Reload the routing table from its source",
		Tags:        []string{"Models"},
	}, s.reloadModels)
}

func (s *Server) reloadModels(ctx context.Context, _ *struct{}) (*ModelsOutput, error) {
	if err := s.models.Reload(ctx); err != nil {
		logger.Warn(ctx, "Model reload fell back to the default model", "error", err)
	}
	if r, ok := s.analyzer.(Rebuilder); ok {
		if err := r.Rebuild(ctx); err != nil {
			return nil, huma.Error500InternalServerError("Failed to rebuild agents", err)
		}
	}
	return s.modelTable(ctx), nil
}

func (s *Server) modelTable(ctx context.Context) *ModelsOutput {
	out := &ModelsOutput{}
	out.Body.Default = s.models.DefaultModel()
	out.Body.Models = s.models.All(ctx)
	return out
}
