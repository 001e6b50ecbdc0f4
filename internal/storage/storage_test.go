package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-analysis-agent/internal/types"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	path, err := s.Save(ctx, types.AgentResult{
		AgentName:   "technical_analyst_result",
		Content:     "X",
		UserID:      "u1",
		SessionID:   "s1",
		StockSymbol: "aapl",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.BaseDir(), "user_u1", "session_s1_aapl", "technical_analyst_result.json"), path)

	got, err := s.Load(ctx, "u1", "s1", "aapl", "technical_analyst_result")
	require.NoError(t, err)
	assert.Equal(t, "X", got.Content)
	assert.Equal(t, "u1", got.UserID)
	assert.NotEmpty(t, got.Timestamp)
	assert.NotNil(t, got.Metadata)
}

func TestSaveSanitizesPath(t *testing.T) {
	s := NewFileStore(t.TempDir())

	path, err := s.Save(context.Background(), types.AgentResult{
		AgentName:   "balance_sheet_result",
		Content:     "ok",
		UserID:      "../evil user",
		SessionID:   "a/b",
		StockSymbol: "brk.b",
	})
	require.NoError(t, err)

	rel, err := filepath.Rel(s.BaseDir(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("user____evil_user", "session_a_b_brk_b", "balance_sheet_result.json"), rel)

	assert.Equal(t, "a_b-c_d", Sanitize("a.b-c d"))
}

func TestSaveKeepsUnicodeIDsApart(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	for user, content := range map[string]string{"김철수": "KIM", "이영희": "LEE"} {
		_, err := s.Save(ctx, types.AgentResult{
			AgentName:   "final_investment_result",
			Content:     content,
			UserID:      user,
			SessionID:   "s1",
			StockSymbol: "aapl",
		})
		require.NoError(t, err)
	}

	kim, err := s.Load(ctx, "김철수", "s1", "aapl", "final_investment_result")
	require.NoError(t, err)
	assert.Equal(t, "KIM", kim.Content)
	assert.Equal(t, "김철수", kim.UserID)

	lee, err := s.Load(ctx, "이영희", "s1", "aapl", "final_investment_result")
	require.NoError(t, err)
	assert.Equal(t, "LEE", lee.Content)

	assert.Equal(t, "김철수", Sanitize("김철수"))
	assert.Equal(t, "삼성전자_005930", Sanitize("삼성전자.005930"))
}

func TestLoadNotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())
	_, err := s.Load(context.Background(), "u1", "s1", "aapl", "growth_analyst_result")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndLoadAll(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()

	empty, err := s.ListAgents(ctx, "u1", "s1", "aapl")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"technical_analyst_result", "balance_sheet_result", "final_investment_result"} {
		_, err := s.Save(ctx, types.AgentResult{AgentName: name, Content: name + " body", UserID: "u1", SessionID: "s1", StockSymbol: "aapl"})
		require.NoError(t, err)
	}
	// stray files are ignored
	dir := filepath.Join(s.BaseDir(), "user_u1", "session_s1_aapl")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	agents, err := s.ListAgents(ctx, "u1", "s1", "aapl")
	require.NoError(t, err)
	assert.Equal(t, []string{"balance_sheet_result", "broken", "final_investment_result", "technical_analyst_result"}, agents)

	all, err := s.LoadAll(ctx, "u1", "s1", "aapl")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "balance_sheet_result body", all["balance_sheet_result"].Content)
	assert.NotContains(t, all, "broken")
}

func TestExtractStockSymbol(t *testing.T) {
	cases := map[string]string{
		"AAPL 주식을 분석해달라":                                 "aapl",
		"Tesla 종목을 분석해줘":                                  "tesla",
		"NVDA에 대해 알려줘":                                     "nvda",
		"Microsoft 주가 전망":                                  "microsoft",
		"What do you think about Microsoft stock?":         "microsoft",
		"Please analyze NVDA for a long-term position":     "nvda",
		"Is $TSLA a buy right now?":                         "tsla",
		"Analyze the stock market":                          UnknownSymbol,
		"hello there":                                       UnknownSymbol,
		"":                                                  UnknownSymbol,
	}
	for query, want := range cases {
		assert.Equal(t, want, ExtractStockSymbol(query), query)
	}
}

func TestAnalysisLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analysis_log.jsonl")
	l := NewAnalysisLog(path)
	l.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	rec := &types.Recommendation{
		UserID:      "u1",
		SessionID:   "s1",
		StockSymbol: "aapl",
		Action:      types.ActionBuy,
		Duration:    1500 * time.Millisecond,
		Results: map[string]string{
			types.KeyFinalInvestment: "BUY",
			types.KeyPMInstructions:  "{}",
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Append(EntryFor(rec)))
		}()
	}
	wg.Wait()

	entries, err := ReadAnalysisLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	e := entries[0]
	assert.Equal(t, "2025-06-15T12:00:00Z", e.Timestamp)
	assert.Equal(t, "BUY", e.Action)
	assert.Equal(t, int64(1500), e.DurationMS)
	assert.Equal(t, []string{types.KeyPMInstructions, types.KeyFinalInvestment}, e.Results)

	missing, err := ReadAnalysisLog(filepath.Join(t.TempDir(), "none.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
