package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"stock-analysis-agent/internal/storage"
	"stock-analysis-agent/internal/types"
)

type SaveResultInput struct {
	Body struct {
		UserID      string `json:"user_id" doc:"User id" minLength:"1"`
		SessionID   string `json:"session_id" doc:"Session id" minLength:"1"`
		StockSymbol string `json:"stock_symbol" doc:"Stock symbol, e.g. aapl" minLength:"1"`
		AgentName   string `json:"agent_name" doc:"Agent output key, e.g. technical_analyst_result" minLength:"1"`
		Content     string `json:"content" doc:"Agent output text"`
		MessageID   string `json:"message_id,omitempty" doc:"Optional chat message id"`
	}
}

type SaveResultOutput struct {
	Body struct {
		Success  bool   `json:"success"`
		Message  string `json:"message"`
		FilePath string `json:"file_path"`
	}
}

type LoadResultInput struct {
	Body struct {
		UserID      string `json:"user_id" minLength:"1"`
		SessionID   string `json:"session_id" minLength:"1"`
		StockSymbol string `json:"stock_symbol" minLength:"1"`
		AgentName   string `json:"agent_name" minLength:"1"`
	}
}

type LoadResultOutput struct {
	Body struct {
		Success bool               `json:"success"`
		Result  *types.AgentResult `json:"result,omitempty"`
		Error   string             `json:"error,omitempty"`
	}
}

type ListResultsInput struct {
	Body struct {
		UserID      string `json:"user_id" minLength:"1"`
		SessionID   string `json:"session_id" minLength:"1"`
		StockSymbol string `json:"stock_symbol" minLength:"1"`
	}
}

type ListResultsOutput struct {
	Body struct {
		Success bool                          `json:"success"`
		Results map[string]*types.AgentResult `json:"results,omitempty"`
		Agents  []string                      `json:"agents,omitempty"`
		Error   string                        `json:"error,omitempty"`
	}
}

func (s *Server) registerResultRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "save-agent-result",
		Method:      http.MethodPost,
		Path:        "/agent-results/save",
		Summary:     "Save an agent result",
		Tags:        []string{"Agent results"},
	}, s.saveResult)

	huma.Register(api, huma.Operation{
		OperationID: "load-agent-result",
		Method:      http.MethodPost,
		Path:        "/agent-results/load",
		Summary:     "Load one agent result",
		Tags:        []string{"Agent results"},
	}, s.loadResult)

	huma.Register(api, huma.Operation{
		OperationID: "list-agent-results",
		Method:      http.MethodPost,
		Path:        "/agent-results/list",
		Summary:     "List every agent result of a session",
		Tags:        []string{"Agent results"},
	}, s.listResults)
}

func (s *Server) saveResult(ctx context.Context, input *SaveResultInput) (*SaveResultOutput, error) {
	in := input.Body
	path, err := s.results.Save(ctx, types.AgentResult{
		AgentName:   in.AgentName,
		Content:     in.Content,
		UserID:      in.UserID,
		SessionID:   in.SessionID,
		StockSymbol: in.StockSymbol,
		Metadata: map[string]any{
			"message_id": in.MessageID,
			"saved_via":  "api",
		},
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to save agent result", err)
	}

	out := &SaveResultOutput{}
	out.Body.Success = true
	out.Body.Message = fmt.Sprintf("Agent result saved: %s", in.AgentName)
	out.Body.FilePath = path
	return out, nil
}

func (s *Server) loadResult(ctx context.Context, input *LoadResultInput) (*LoadResultOutput, error) {
	in := input.Body
	result, err := s.results.Load(ctx, in.UserID, in.SessionID, in.StockSymbol, in.AgentName)

	out := &LoadResultOutput{}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		out.Body.Error = fmt.Sprintf("Agent result not found: %s", in.AgentName)
		return out, nil
	case err != nil:
		return nil, huma.Error500InternalServerError("Failed to load agent result", err)
	}

	out.Body.Success = true
	out.Body.Result = result
	return out, nil
}

func (s *Server) listResults(ctx context.Context, input *ListResultsInput) (*ListResultsOutput, error) {
	in := input.Body
	results, err := s.results.LoadAll(ctx, in.UserID, in.SessionID, in.StockSymbol)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list agent results", err)
	}

	out := &ListResultsOutput{}
	if len(results) == 0 {
		out.Body.Error = "No agent results found for this session"
		return out, nil
	}

	agents, err := s.results.ListAgents(ctx, in.UserID, in.SessionID, in.StockSymbol)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list agent results", err)
	}

	out.Body.Success = true
	out.Body.Results = results
	out.Body.Agents = agents
	return out, nil
}
