package storageobs

import (
	"context"
	"errors"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/storage"
	"stock-analysis-agent/internal/trace"
	"stock-analysis-agent/internal/types"
)

// observableStore wraps a ResultStore with observability (logging & tracing)
type observableStore struct {
	store interfaces.ResultStore
}

// Compile-time interface check
var _ interfaces.ResultStore = (*observableStore)(nil)

// Wrap wraps a result store with observability middleware
func Wrap(store interfaces.ResultStore) interfaces.ResultStore {
	return &observableStore{
		store: store,
	}
}

// Save persists a result with observability
func (so *observableStore) Save(ctx context.Context, result types.AgentResult) (string, error) {
	ctx, span := trace.StartSpan(ctx, "storage.Save")
	defer span.End()

	path, err := so.store.Save(ctx, result)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to save agent result", err,
			"agent", result.AgentName,
			"session_id", result.SessionID,
			"symbol", result.StockSymbol,
		)
		return "", err
	}

	logger.InfoSkip(ctx, 1, "Agent result saved",
		"agent", result.AgentName,
		"session_id", result.SessionID,
		"symbol", result.StockSymbol,
		"path", path,
	)
	return path, nil
}

// Load reads a result with observability. A missing result is logged at debug level.
func (so *observableStore) Load(ctx context.Context, userID, sessionID, symbol, agentName string) (*types.AgentResult, error) {
	ctx, span := trace.StartSpan(ctx, "storage.Load")
	defer span.End()

	result, err := so.store.Load(ctx, userID, sessionID, symbol, agentName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.DebugSkip(ctx, 1, "Agent result not found", "agent", agentName, "session_id", sessionID)
		return nil, err
	case err != nil:
		logger.ErrorWithErrSkip(ctx, 1, "Failed to load agent result", err, "agent", agentName, "session_id", sessionID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Agent result loaded", "agent", agentName, "session_id", sessionID)
	return result, nil
}

// ListAgents lists saved results with observability
func (so *observableStore) ListAgents(ctx context.Context, userID, sessionID, symbol string) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "storage.ListAgents")
	defer span.End()

	agents, err := so.store.ListAgents(ctx, userID, sessionID, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to list agent results", err, "session_id", sessionID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Agent results listed", "session_id", sessionID, "count", len(agents))
	return agents, nil
}

// LoadAll loads a whole session with observability
func (so *observableStore) LoadAll(ctx context.Context, userID, sessionID, symbol string) (map[string]*types.AgentResult, error) {
	ctx, span := trace.StartSpan(ctx, "storage.LoadAll")
	defer span.End()

	results, err := so.store.LoadAll(ctx, userID, sessionID, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to load session results", err, "session_id", sessionID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Session results loaded", "session_id", sessionID, "count", len(results))
	return results, nil
}
