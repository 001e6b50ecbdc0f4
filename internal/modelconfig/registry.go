// Package modelconfig routes each agent to an LLM model id. Assignments are
// loaded lazily from a Source once per process and fall back to a default.
package modelconfig

import (
	"context"
	"errors"
	"maps"
	"sync"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/types"
)

// DefaultModel is used for any agent without an assignment.
const DefaultModel = "gemini-2.5-flash"

// ErrSourceUnavailable means the backing store is not configured in this environment.
var ErrSourceUnavailable = errors.New("model source unavailable")

// DefaultAssignments are the shipped routing defaults. Only the final report gets the pro model.
func DefaultAssignments() map[string]string {
	out := make(map[string]string, len(types.AgentOutputKey))
	for agent := range types.AgentOutputKey {
		out[agent] = DefaultModel
	}
	out[types.AgentHedgeFundManager] = "gemini-2.5-pro"
	return out
}

// Registry is a read-through cache over a model Source.
type Registry struct {
	source       interfaces.ModelSource
	defaultModel string

	mu     sync.RWMutex
	cache  map[string]string
	loaded bool
}

var _ interfaces.ModelResolver = (*Registry)(nil)

func NewRegistry(source interfaces.ModelSource, defaultModel string) *Registry {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Registry{
		source:       source,
		defaultModel: defaultModel,
		cache:        map[string]string{},
	}
}

func (r *Registry) DefaultModel() string {
	return r.defaultModel
}

// Loaded reports whether the source has been consulted.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// ensureLoaded loads the source at most once. A failed load still counts as loaded
// so a broken store is not retried on every lookup. The load ignores the
// caller's cancellation.
func (r *Registry) ensureLoaded(ctx context.Context) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return
	}
	_ = r.loadLocked(context.WithoutCancel(ctx))
}

func (r *Registry) loadLocked(ctx context.Context) error {
	r.loaded = true
	if r.source == nil {
		return ErrSourceUnavailable
	}

	logger.Info(ctx, "Loading agent model configuration", "source", r.source.Name())
	assignments, err := r.source.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) {
			logger.Warn(ctx, "Model source not available, using default model for all agents",
				"source", r.source.Name(), "default", r.defaultModel, "reason", err)
		} else {
			logger.ErrorWithErr(ctx, "Failed to load model configuration, using default model", err,
				"source", r.source.Name(), "default", r.defaultModel)
		}
		return err
	}

	for agent, model := range assignments {
		if agent == "" || model == "" {
			continue
		}
		r.cache[agent] = model
	}
	if len(r.cache) == 0 {
		logger.Warn(ctx, "No agent model configuration found, using default model",
			"source", r.source.Name(), "default", r.defaultModel)
	} else {
		logger.Info(ctx, "Agent model configuration loaded", "source", r.source.Name(), "count", len(r.cache))
	}
	return nil
}

// GetModel returns the model for agentName, or the default.
func (r *Registry) GetModel(ctx context.Context, agentName string) string {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if model, ok := r.cache[agentName]; ok {
		logger.Debug(ctx, "Agent model resolved", "agent", agentName, "model", model)
		return model
	}
	logger.Debug(ctx, "Agent not configured, using default model", "agent", agentName, "model", r.defaultModel)
	return r.defaultModel
}

// All returns a copy of the loaded assignments.
func (r *Registry) All(ctx context.Context) map[string]string {
	r.ensureLoaded(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.cache)
}

// Reload clears the cache and consults the source again.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info(ctx, "Reloading agent model configuration")
	r.cache = map[string]string{}
	r.loaded = false
	return r.loadLocked(ctx)
}
