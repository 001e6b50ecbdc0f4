package modelconfig

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analysis-agent/internal/store"
	"stock-analysis-agent/internal/types"
)

type countingSource struct {
	calls       atomic.Int32
	assignments map[string]string
	err         error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Load(ctx context.Context) (map[string]string, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.assignments, nil
}

func TestRegistryLookup(t *testing.T) {
	src := &countingSource{assignments: map[string]string{"balance_sheet_agent": "openrouter/qwen/qwen3-max"}}
	r := NewRegistry(src, "")
	ctx := context.Background()

	assert.False(t, r.Loaded())
	assert.Equal(t, "openrouter/qwen/qwen3-max", r.GetModel(ctx, "balance_sheet_agent"))
	assert.Equal(t, DefaultModel, r.GetModel(ctx, "unknown_agent"))
	assert.True(t, r.Loaded())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRegistryLoadsOnceConcurrently(t *testing.T) {
	src := &countingSource{assignments: map[string]string{"a": "m"}}
	r := NewRegistry(src, DefaultModel)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "m", r.GetModel(context.Background(), "a"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRegistryFailureFallsBack(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	r := NewRegistry(src, "gemini-2.5-flash")
	ctx := context.Background()

	assert.Equal(t, "gemini-2.5-flash", r.GetModel(ctx, "hedge_fund_manager_agent"))
	assert.Equal(t, "gemini-2.5-flash", r.GetModel(ctx, "hedge_fund_manager_agent"))
	assert.Equal(t, int32(1), src.calls.Load(), "failed load must not be retried")
	assert.Empty(t, r.All(ctx))
}

func TestRegistryFirstLoadIgnoresCallerCancel(t *testing.T) {
	src := &countingSource{assignments: map[string]string{types.AgentHedgeFundManager: "gemini-2.5-pro"}}
	r := NewRegistry(src, DefaultModel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "gemini-2.5-pro", r.GetModel(ctx, types.AgentHedgeFundManager))
	assert.Equal(t, "gemini-2.5-pro", r.GetModel(context.Background(), types.AgentHedgeFundManager))
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRegistryReload(t *testing.T) {
	src := &countingSource{assignments: map[string]string{"a": "m1"}}
	r := NewRegistry(src, DefaultModel)
	ctx := context.Background()

	assert.Equal(t, "m1", r.GetModel(ctx, "a"))
	src.assignments = map[string]string{"a": "m2"}
	require.NoError(t, r.Reload(ctx))
	assert.Equal(t, "m2", r.GetModel(ctx, "a"))
	assert.Equal(t, int32(2), src.calls.Load())

	src.err = errors.New("gone")
	assert.Error(t, r.Reload(ctx))
	assert.Equal(t, DefaultModel, r.GetModel(ctx, "a"))
}

func TestRegistryAllIsCopy(t *testing.T) {
	r := NewRegistry(NewStaticSource(map[string]string{"a": "m"}), DefaultModel)
	all := r.All(context.Background())
	all["a"] = "mutated"
	assert.Equal(t, "m", r.GetModel(context.Background(), "a"))
}

func TestStaticSourceDefaults(t *testing.T) {
	r := NewRegistry(NewStaticSource(nil), DefaultModel)
	ctx := context.Background()

	assert.Equal(t, "gemini-2.5-pro", r.GetModel(ctx, types.AgentHedgeFundManager))
	assert.Equal(t, DefaultModel, r.GetModel(ctx, types.AgentTechnicalAnalyst))
	assert.Len(t, r.All(ctx), len(types.AgentOutputKey))
}

func TestRedisSource(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr()+"/0")
	mr.HSet("stock_agents:models", "technical_analyst_agent", "openrouter/z-ai/glm-4.6")

	src := NewRedisSource("REDIS_URL", "stock_agents:models")
	r := NewRegistry(src, DefaultModel)
	ctx := context.Background()

	assert.Equal(t, "openrouter/z-ai/glm-4.6", r.GetModel(ctx, "technical_analyst_agent"))
	assert.Equal(t, DefaultModel, r.GetModel(ctx, "growth_analyst_agent"))

	require.NoError(t, src.Store(ctx, map[string]string{"growth_analyst_agent": "gemini-2.5-pro"}))
	require.NoError(t, r.Reload(ctx))
	assert.Equal(t, "gemini-2.5-pro", r.GetModel(ctx, "growth_analyst_agent"))
}

func TestRedisSourceUnavailable(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	_, err := NewRedisSource("REDIS_URL", "k").Load(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFirestoreSourceUnavailable(t *testing.T) {
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "")
	src := NewFirestoreSource("FIREBASE_PROJECT_ID", "FIREBASE_CREDENTIALS_PATH", "stock_agents", 0)
	_, err := src.Load(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	t.Setenv("FIREBASE_CREDENTIALS_PATH", filepath.Join(t.TempDir(), "missing.json"))
	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	r := NewRegistry(src, DefaultModel)
	assert.Equal(t, DefaultModel, r.GetModel(context.Background(), types.AgentHedgeFundManager))
}

func TestNewSource(t *testing.T) {
	cfg := store.DefaultConfig()
	for _, name := range []string{"static", "firestore", "redis"} {
		cfg.Models.Source = name
		src, err := NewSource(cfg)
		require.NoError(t, err)
		assert.Equal(t, name, src.Name())
	}
	cfg.Models.Source = "etcd"
	_, err := NewSource(cfg)
	assert.Error(t, err)
}
