// Package storage persists agent results on the local filesystem, laid out as
// <base>/user_<id>/session_<id>_<symbol>/<agent_name>.json.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/types"
)

// ErrNotFound is returned when no result exists for the requested agent.
var ErrNotFound = errors.New("agent result not found")

var unsafePathRe = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)

// Sanitize replaces every character that is not a letter, digit, '_' or '-'
// with '_'. Letters and digits from any script are kept.
func Sanitize(part string) string {
	return unsafePathRe.ReplaceAllString(part, "_")
}

type FileStore struct {
	baseDir string
	now     func() time.Time
}

var _ interfaces.ResultStore = (*FileStore)(nil)

func NewFileStore(baseDir string) *FileStore {
	if baseDir == "" {
		baseDir = "results"
	}
	return &FileStore{baseDir: baseDir, now: time.Now}
}

func (s *FileStore) BaseDir() string { return s.baseDir }

func (s *FileStore) sessionDir(userID, sessionID, symbol string) string {
	folder := fmt.Sprintf("session_%s_%s", Sanitize(sessionID), Sanitize(symbol))
	return filepath.Join(s.baseDir, "user_"+Sanitize(userID), folder)
}

func (s *FileStore) resultPath(userID, sessionID, symbol, agentName string) string {
	return filepath.Join(s.sessionDir(userID, sessionID, symbol), Sanitize(agentName)+".json")
}

// Save writes the result and returns the file path. An existing result for the
// same agent is overwritten.
func (s *FileStore) Save(ctx context.Context, result types.AgentResult) (string, error) {
	if result.Timestamp == "" {
		result.Timestamp = s.now().Format(time.RFC3339Nano)
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}

	path := s.resultPath(result.UserID, result.SessionID, result.StockSymbol, result.AgentName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", result.AgentName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s result: %w", result.AgentName, err)
	}

	logger.Debug(ctx, "Saved agent result", "agent", result.AgentName, "path", path, "chars", len(result.Content))
	return path, nil
}

func (s *FileStore) Load(ctx context.Context, userID, sessionID, symbol, agentName string) (*types.AgentResult, error) {
	path := s.resultPath(userID, sessionID, symbol, agentName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, agentName)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s result: %w", agentName, err)
	}

	var result types.AgentResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", agentName, err)
	}
	return &result, nil
}

// ListAgents returns the sorted agent names with a saved result. A session
// without results yields an empty list.
func (s *FileStore) ListAgents(ctx context.Context, userID, sessionID, symbol string) ([]string, error) {
	entries, err := os.ReadDir(s.sessionDir(userID, sessionID, symbol))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	agents := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		agents = append(agents, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(agents)
	return agents, nil
}

// LoadAll loads every saved result of a session keyed by agent name. Files
// that fail to decode are skipped with a warning.
func (s *FileStore) LoadAll(ctx context.Context, userID, sessionID, symbol string) (map[string]*types.AgentResult, error) {
	agents, err := s.ListAgents(ctx, userID, sessionID, symbol)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*types.AgentResult, len(agents))
	for _, name := range agents {
		r, err := s.Load(ctx, userID, sessionID, symbol, name)
		if err != nil {
			logger.Warn(ctx, "Skipping unreadable agent result", "agent", name, "error", err)
			continue
		}
		out[name] = r
	}
	return out, nil
}
