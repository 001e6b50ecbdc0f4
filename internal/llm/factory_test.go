package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/llm/noop"
	"stock-analysis-agent/internal/modelconfig"
	"stock-analysis-agent/internal/store"
	"stock-analysis-agent/internal/types"
)

func newTestFactory(t *testing.T) *Factory {
	t.Helper()
	cfg := store.DefaultConfig()
	t.Setenv(cfg.Models.GoogleAPIKeyEnv, "")
	t.Setenv(cfg.Models.OpenAIAPIKeyEnv, "")
	registry := modelconfig.NewRegistry(modelconfig.NewStaticSource(map[string]string{
		types.AgentTechnicalAnalyst: "openrouter/qwen/qwen3-max",
	}), "")
	return NewFactory(cfg, registry)
}

func TestFactoryFallsBackToNoop(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	m, err := f.ForAgent(ctx, types.AgentTechnicalAnalyst)
	require.NoError(t, err)
	assert.Equal(t, noop.Name, m.Name())

	g, err := f.Model(ctx, "gemini-2.5-pro")
	require.NoError(t, err)
	assert.Equal(t, noop.Name, g.Name())
}

func TestFactoryMemoizes(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()

	a, err := f.Model(ctx, "gemini-2.5-flash")
	require.NoError(t, err)
	b, err := f.Model(ctx, "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestFactoryUsesProviderWhenKeySet(t *testing.T) {
	f := newTestFactory(t)
	t.Setenv(store.DefaultConfig().Models.OpenAIAPIKeyEnv, "sk-test")
	t.Setenv(store.DefaultConfig().Models.GoogleAPIKeyEnv, "g-test")

	var geminiCalls []string
	f.newGemini = func(ctx context.Context, name, apiKey string) (model.LLM, error) {
		geminiCalls = append(geminiCalls, name+":"+apiKey)
		return noop.New(), nil
	}

	ctx := context.Background()
	_, err := f.Model(ctx, "gemini-2.5-pro")
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini-2.5-pro:g-test"}, geminiCalls)

	m, err := f.Model(ctx, "openrouter/qwen/qwen3-max")
	require.NoError(t, err)
	assert.Equal(t, "openrouter/qwen/qwen3-max", m.Name())
}

func TestIsGemini(t *testing.T) {
	assert.True(t, IsGemini("gemini-2.5-flash"))
	assert.True(t, IsGemini("Gemini-2.0"))
	assert.False(t, IsGemini("openrouter/google/gemini-2.5-pro"))
	assert.False(t, IsGemini("qwen/qwen3-max"))
}

func TestNoopModel(t *testing.T) {
	m := noop.New()
	ctx := context.Background()

	text := func(req *model.LLMRequest) string {
		for resp, err := range m.GenerateContent(ctx, req, false) {
			require.NoError(t, err)
			return resp.Content.Parts[0].Text
		}
		return ""
	}

	assert.Equal(t, noop.HoldReport, text(&model.LLMRequest{}))
	assert.Equal(t, types.ActionHold, types.ParseAction(text(&model.LLMRequest{})))

	pm := &model.LLMRequest{Config: &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText("Reply with a ```json block.", genai.RoleUser),
	}}
	assert.Equal(t, noop.EmptyJSON, text(pm))
}
