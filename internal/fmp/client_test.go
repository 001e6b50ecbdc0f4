package fmp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/tool"

	"stock-analysis-agent/internal/store"
)

func countOf(build func() ([]tool.Tool, error)) func() (int, error) {
	return func() (int, error) {
		tools, err := build()
		return len(tools), err
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := store.DefaultConfig()
	cfg.FMP.BaseURL = srv.URL + "/stable/"
	cfg.FMP.RequestsPerSecond = 1000
	cfg.FMP.Burst = 100
	cfg.FMP.TimeoutSeconds = 2
	t.Setenv("FMP_API_KEY", "test-key")
	return New(cfg, opts...)
}

func TestGetReturnsObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stable/discounted-cash-flow", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"AAPL","dcf":180.5}`))
	})

	got := c.DCFValuation(context.Background(), "aapl")
	assert.Equal(t, "AAPL", got["symbol"])
	assert.Equal(t, 180.5, got["dcf"])
}

func TestGetWrapsArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2024-09-28"},{"date":"2023-09-30"}]`))
	})

	got := c.BalanceSheet(context.Background(), "AAPL", 2, "annual")
	require.Contains(t, got, "result")
	rows, ok := got["result"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestGetNon200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	got := c.KeyMetrics(context.Background(), "AAPL")
	assert.Equal(t, map[string]any{"error": "Failed to fetch data: 402"}, got)
}

func TestGetTransportError(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.FMP.BaseURL = "http://127.0.0.1:1/stable/"
	cfg.FMP.TimeoutSeconds = 1
	t.Setenv("FMP_API_KEY", "SUPERSECRETKEY")
	c := New(cfg)

	got := c.RSI(context.Background(), "AAPL")
	require.Contains(t, got, "error")
	msg, ok := got["error"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, "Request failed:")
	assert.Contains(t, msg, "technical-indicators/rsi")
	assert.NotContains(t, msg, "SUPERSECRETKEY")
	assert.NotContains(t, msg, "apikey=")
}

func TestGetBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	got := c.ADX(context.Background(), "AAPL")
	require.Contains(t, got, "error")
	assert.Contains(t, got["error"], "Unexpected error:")
}

func TestGetMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	t.Setenv("FMP_API_KEY", "")

	got := c.OwnerEarnings(context.Background(), "AAPL")
	assert.Equal(t, map[string]any{"error": "FMP_API_KEY environment variable not set"}, got)
	assert.Zero(t, calls.Load())
}

func TestGetCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := c.FinancialRatios(ctx, "AAPL")
	require.Contains(t, got, "error")
	assert.Contains(t, got["error"], "Request failed:")
}

func TestEndpointParameters(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]url.Values{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		q := r.URL.Query()
		q.Del("apikey")
		key := r.URL.Path
		if p := q.Get("periodLength"); p != "" {
			key += "#" + p
		}
		seen[key] = q
		_, _ = w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	c.PriceTargetNews(ctx, "msft")
	c.HistoricalGrades(ctx, "MSFT")
	c.StockNews(ctx, "MSFT")
	c.AnalystEstimates(ctx, "MSFT")
	c.IncomeStatementGrowth(ctx, "MSFT")
	c.SMAMid(ctx, "MSFT")
	c.SMALong(ctx, "MSFT")
	c.StandardDeviation(ctx, "MSFT")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, url.Values{"symbols": {"MSFT"}, "limit": {"10"}, "page": {"0"}}, seen["/stable/price-target-news"])
	assert.Equal(t, url.Values{"symbol": {"MSFT"}, "limit": {"20"}}, seen["/stable/grades-historical"])
	assert.Equal(t, url.Values{"symbols": {"MSFT"}, "limit": {"50"}}, seen["/stable/news/stock"])
	assert.Equal(t, url.Values{"symbol": {"MSFT"}, "period": {"annual"}, "page": {"0"}, "limit": {"10"}}, seen["/stable/analyst-estimates"])
	assert.Equal(t, url.Values{"symbol": {"MSFT"}, "period": {"quarter"}, "limit": {"10"}}, seen["/stable/income-statement-growth"])
	assert.Equal(t, "1day", seen["/stable/technical-indicators/sma#30"].Get("timeframe"))
	assert.Contains(t, seen, "/stable/technical-indicators/sma#100")
	assert.Contains(t, seen, "/stable/technical-indicators/standarddeviation#10")
}

func TestEconomicIndicatorCache(t *testing.T) {
	var calls atomic.Int32
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "2022-06-15", r.URL.Query().Get("from"))
		if r.URL.Query().Get("name") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"GDP","value":1}]`))
	}, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	first := c.EconomicIndicator(ctx, "GDP")
	second := c.EconomicIndicator(ctx, "GDP")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.economic.size())

	// errors are not cached
	c.EconomicIndicator(ctx, "broken")
	c.EconomicIndicator(ctx, "broken")
	assert.Equal(t, int32(3), calls.Load())

	c.ClearEconomicCache()
	c.EconomicIndicator(ctx, "GDP")
	assert.Equal(t, int32(4), calls.Load())
}

func TestStatementArgsDefaults(t *testing.T) {
	got := StatementArgs{Ticker: "AAPL"}.normalized()
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, "annual", got.Period)

	kept := StatementArgs{Ticker: "AAPL", Limit: 8, Period: "quarter"}.normalized()
	assert.Equal(t, 8, kept.Limit)
	assert.Equal(t, "quarter", kept.Period)
}

func TestToolGroups(t *testing.T) {
	c := New(store.DefaultConfig())

	groups := map[string]func() (int, error){
		"balance":   countOf(c.BalanceSheetTools),
		"income":    countOf(c.IncomeStatementTools),
		"cashflow":  countOf(c.CashFlowTools),
		"basic":     countOf(c.BasicFinancialTools),
		"intrinsic": countOf(c.IntrinsicValueTools),
		"growth":    countOf(c.GrowthTools),
		"technical": countOf(c.TechnicalTools),
		"research":  countOf(c.StockResearchTools),
		"opinion":   countOf(c.AnalystOpinionTools),
		"webnews":   countOf(c.WebNewsTools),
		"macro":     countOf(c.MacroTools),
	}
	want := map[string]int{
		"balance": 1, "income": 1, "cashflow": 1, "basic": 2, "intrinsic": 4, "growth": 3,
		"technical": 5, "research": 4, "opinion": 4, "webnews": 1, "macro": 1,
	}
	for name, build := range groups {
		n, err := build()
		require.NoError(t, err, name)
		assert.Equal(t, want[name], n, name)
	}
}
