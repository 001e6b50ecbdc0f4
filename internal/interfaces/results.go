package interfaces

import (
	"context"

	"stock-analysis-agent/internal/types"
)

// ResultStore persists per-agent outputs keyed by user, session and symbol.
type ResultStore interface {
	Save(ctx context.Context, result types.AgentResult) (string, error)
	Load(ctx context.Context, userID, sessionID, symbol, agentName string) (*types.AgentResult, error)
	ListAgents(ctx context.Context, userID, sessionID, symbol string) ([]string, error)
	LoadAll(ctx context.Context, userID, sessionID, symbol string) (map[string]*types.AgentResult, error)
}
