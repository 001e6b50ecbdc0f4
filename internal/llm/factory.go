// Package llm builds the model.LLM used by each agent. Gemini model ids go to
// the Gemini API; everything else goes to an OpenAI-compatible endpoint.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/llm/llmobs"
	"stock-analysis-agent/internal/llm/noop"
	"stock-analysis-agent/internal/llm/openai"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/store"
)

// Factory creates and memoizes models by name.
type Factory struct {
	resolver      interfaces.ModelResolver
	googleKeyEnv  string
	openAIKeyEnv  string
	openAIBaseURL string
	newGemini     func(ctx context.Context, name, apiKey string) (model.LLM, error)

	mu     sync.Mutex
	models map[string]model.LLM
}

// NewFactory wires the factory from config. resolver maps agent names to model ids.
func NewFactory(cfg *store.Config, resolver interfaces.ModelResolver) *Factory {
	return &Factory{
		resolver:      resolver,
		googleKeyEnv:  cfg.Models.GoogleAPIKeyEnv,
		openAIKeyEnv:  cfg.Models.OpenAIAPIKeyEnv,
		openAIBaseURL: cfg.Models.OpenAIBaseURL,
		newGemini:     newGeminiModel,
		models:        map[string]model.LLM{},
	}
}

func newGeminiModel(ctx context.Context, name, apiKey string) (model.LLM, error) {
	return gemini.NewModel(ctx, name, &genai.ClientConfig{
		APIKey: apiKey,
	})
}

// IsGemini reports whether name is served by the Gemini API.
func IsGemini(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "gemini")
}

// ForAgent resolves the agent's model id through the registry and returns the model.
func (f *Factory) ForAgent(ctx context.Context, agentName string) (model.LLM, error) {
	return f.Model(ctx, f.resolver.GetModel(ctx, agentName))
}

// Model returns the model for name. A provider without an API key falls back to
// the noop model so offline runs still complete.
func (f *Factory) Model(ctx context.Context, name string) (model.LLM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.models[name]; ok {
		return m, nil
	}

	m, err := f.build(ctx, name)
	if err != nil {
		return nil, err
	}
	m = llmobs.Wrap(m)
	f.models[name] = m
	return m, nil
}

func (f *Factory) build(ctx context.Context, name string) (model.LLM, error) {
	if name == noop.Name {
		return noop.New(), nil
	}

	if IsGemini(name) {
		key := os.Getenv(f.googleKeyEnv)
		if key == "" {
			logger.Warn(ctx, "Gemini API key not set, using noop model", "model", name, "env", f.googleKeyEnv)
			return noop.New(), nil
		}
		m, err := f.newGemini(ctx, name, key)
		if err != nil {
			return nil, fmt.Errorf("create gemini model %s: %w", name, err)
		}
		logger.Debug(ctx, "Created gemini model", "model", name)
		return m, nil
	}

	key := os.Getenv(f.openAIKeyEnv)
	if key == "" {
		logger.Warn(ctx, "OpenAI-compatible API key not set, using noop model", "model", name, "env", f.openAIKeyEnv)
		return noop.New(), nil
	}
	logger.Debug(ctx, "Created chat completions model", "model", name, "base_url", f.openAIBaseURL)
	return openai.New(openai.Config{
		Model:   name,
		BaseURL: f.openAIBaseURL,
		APIKey:  key,
	}), nil
}
