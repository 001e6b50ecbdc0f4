package pipeline

import (
	"context"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/fmp"
	"stock-analysis-agent/internal/storage"
	"stock-analysis-agent/internal/store"
	"stock-analysis-agent/internal/types"
	"stock-analysis-agent/internal/web"
)

const pmAnswer = "Here is the plan.\n```json\n{\n" +
	`"stock_researcher_instruction": "Focus on iPhone demand",` + "\n" +
	`"financial_team_instruction": "Check services margin",` + "\n" +
	`"technical_analyst_instruction": "Look at the 200 day average",` + "\n" +
	`"quantitative_team_instruction": "Compare DCF with price",` + "\n" +
	`"macro_economy_instruction": "Consider rate cuts"` + "\n}\n```"

// scriptedModel answers by role: the project manager gets a JSON plan, the
// hedge fund manager a BUY call and everyone else a short analysis. With
// cancelAfterPM set, the first call after the project manager cancels the run.
type scriptedModel struct {
	calls         atomic.Int32
	sawNote       atomic.Bool
	sawFinal      atomic.Bool
	cancelAfterPM context.CancelFunc
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	m.calls.Add(1)
	sys := systemText(req)

	if m.cancelAfterPM != nil && !strings.Contains(sys, "You are the project manager of a stock analysis firm") {
		m.cancelAfterPM()
		return func(yield func(*model.LLMResponse, error) bool) {
			yield(nil, context.Canceled)
		}
	}

	text := "Analysis complete. Nothing unusual found."
	switch {
	case strings.Contains(sys, "You are the project manager of a stock analysis firm"):
		text = pmAnswer
	case strings.Contains(sys, "MUST begin with one of these ratings"):
		m.sawFinal.Store(strings.Contains(sys, "Analysis complete"))
		text = "BUY\n\nServices growth and buybacks support the price."
	case strings.Contains(sys, "Focus on iPhone demand"):
		m.sawNote.Store(true)
	}

	return func(yield func(*model.LLMResponse, error) bool) {
		yield(&model.LLMResponse{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
			TurnComplete: true,
		}, nil)
	}
}

func systemText(req *model.LLMRequest) string {
	if req == nil || req.Config == nil || req.Config.SystemInstruction == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range req.Config.SystemInstruction.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

type staticModels struct{ llm model.LLM }

func (s staticModels) ForAgent(context.Context, string) (model.LLM, error) { return s.llm, nil }

type fixture struct {
	pipeline *Pipeline
	results  *storage.FileStore
	log      *storage.AnalysisLog
	model    *scriptedModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, &scriptedModel{})
}

func newFixtureWith(t *testing.T, m *scriptedModel) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	cfg := store.DefaultConfig()
	cfg.FMP.BaseURL = srv.URL + "/stable/"
	cfg.FMP.RequestsPerSecond = 1000
	cfg.FMP.Burst = 100
	t.Setenv("FMP_API_KEY", "test-key")

	dir := t.TempDir()
	results := storage.NewFileStore(filepath.Join(dir, "results"))
	log := storage.NewAnalysisLog(filepath.Join(dir, "results", "analysis_log.jsonl"))

	p, err := New(context.Background(), Options{
		Config: cfg,
		Models: staticModels{m},
		Tools: Toolbox{
			FMP:       fmp.New(cfg),
			GuruFocus: web.NewGuruFocus(srv.URL, time.Second),
			Search:    web.NewSearcher(srv.URL, time.Second, 5),
		},
		Results: results,
		Log:     log,
	})
	require.NoError(t, err)
	return &fixture{pipeline: p, results: results, log: log, model: m}
}

func TestBuildTreeShape(t *testing.T) {
	f := newFixture(t)
	root := f.pipeline.Root()

	assert.Equal(t, RootAgentName, root.Name())
	subs := root.SubAgents()
	require.Len(t, subs, 3)
	assert.Equal(t, types.AgentProjectManager, subs[0].Name())
	assert.Equal(t, DepartmentAgentName, subs[1].Name())
	assert.Equal(t, types.AgentHedgeFundManager, subs[2].Name())

	var branches []string
	for _, a := range subs[1].SubAgents() {
		branches = append(branches, a.Name())
	}
	assert.Equal(t, []string{
		ResearchTeamName,
		FinancialTeamName,
		types.AgentTechnicalAnalyst,
		QuantTeamName,
		types.AgentEconomicIndicators,
	}, branches)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.pipeline.Analyze(ctx, Request{
		UserID:    "u1",
		SessionID: "s1",
		Query:     "Please analyze AAPL for a long-term position",
	})
	require.NoError(t, err)

	assert.Equal(t, "aapl", rec.StockSymbol)
	assert.Equal(t, types.ActionBuy, rec.Action)
	assert.True(t, strings.HasPrefix(rec.Report, "BUY"))
	assert.False(t, rec.Interrupted)
	assert.Equal(t, int32(16), f.model.calls.Load())
	assert.True(t, f.model.sawNote.Load(), "team prompts carry the project manager's note")
	assert.True(t, f.model.sawFinal.Load(), "hedge fund manager sees upstream reports")

	agents, err := f.results.ListAgents(ctx, "u1", "s1", "aapl")
	require.NoError(t, err)
	assert.ElementsMatch(t, types.OutputKeys, agents)

	final, err := f.results.Load(ctx, "u1", "s1", "aapl", types.KeyFinalInvestment)
	require.NoError(t, err)
	assert.Equal(t, rec.Report, final.Content)
	assert.Equal(t, "pipeline", final.Metadata["saved_via"])
	assert.Equal(t, types.AgentHedgeFundManager, final.Metadata["author"])

	pm, err := f.results.Load(ctx, "u1", "s1", "aapl", types.KeyPMInstructions)
	require.NoError(t, err)
	assert.Contains(t, pm.Content, "Focus on iPhone demand")

	entries, err := storage.ReadAnalysisLog(f.log.Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "BUY", entries[0].Action)
	assert.Equal(t, "s1", entries[0].SessionID)
	assert.Len(t, entries[0].Results, len(types.OutputKeys))
}

func TestAnalyzeCancelledKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixtureWith(t, &scriptedModel{cancelAfterPM: cancel})

	rec, err := f.pipeline.Analyze(ctx, Request{
		UserID:    "u1",
		SessionID: "s1",
		Query:     "Please analyze AAPL for a long-term position",
	})
	require.NoError(t, err)

	assert.True(t, rec.Interrupted)
	assert.Equal(t, types.ActionHold, rec.Action)
	assert.Empty(t, rec.Report)
	assert.Contains(t, rec.Results, types.KeyPMInstructions)

	bg := context.Background()
	pm, err := f.results.Load(bg, "u1", "s1", "aapl", types.KeyPMInstructions)
	require.NoError(t, err)
	assert.Contains(t, pm.Content, "Focus on iPhone demand")

	_, err = f.results.Load(bg, "u1", "s1", "aapl", types.KeyFinalInvestment)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := storage.ReadAnalysisLog(f.log.Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Interrupted)
	assert.Equal(t, "HOLD", entries[0].Action)
	assert.Equal(t, "s1", entries[0].SessionID)
}

func TestStreamHandsOutEvents(t *testing.T) {
	f := newFixture(t)

	authors := map[string]bool{}
	rec, err := f.pipeline.Stream(context.Background(), Request{Query: "Is $TSLA a buy right now?"}, func(ev *session.Event) error {
		authors[ev.Author] = true
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "tsla", rec.StockSymbol)
	assert.NotEmpty(t, rec.SessionID)
	assert.Equal(t, store.DefaultConfig().App.UserID, rec.UserID)
	assert.True(t, authors[types.AgentProjectManager])
	assert.True(t, authors[types.AgentHedgeFundManager])
}

func TestAnalyzeRejectsEmptyQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Analyze(context.Background(), Request{UserID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestNewSessionService(t *testing.T) {
	ctx := context.Background()
	cfg := store.DefaultConfig()

	mem, err := NewSessionService(ctx, cfg)
	require.NoError(t, err)
	assert.NotNil(t, mem)

	cfg.Sessions.DBPath = filepath.Join(t.TempDir(), "data", "sessions.db")
	db, err := NewSessionService(ctx, cfg)
	require.NoError(t, err)

	_, err = db.Create(ctx, &session.CreateRequest{
		AppName:   cfg.App.Name,
		UserID:    "u1",
		SessionID: "s1",
		State:     map[string]any{types.KeyStockSymbol: "aapl"},
	})
	require.NoError(t, err)
	assert.FileExists(t, cfg.Sessions.DBPath)
}
