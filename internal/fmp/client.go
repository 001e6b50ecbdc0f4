// Package fmp wraps the Financial Modeling Prep REST API. Every call returns
// decoded JSON or a one-line {"error": ...} object; failures are never raised.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"stock-analysis-agent/internal/api"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/store"
)

// Client issues one GET per endpoint with fixed parameters.
type Client struct {
	http          *api.Client
	apiKeyEnv     string
	lookbackYears int
	economic      *economicCache
	now           func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithClock overrides the time source used for date-relative parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New builds a client from the fmp section of the config.
func New(cfg *store.Config, opts ...Option) *Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.FMP.RequestsPerSecond), cfg.FMP.Burst)
	c := &Client{
		http: api.NewClient(
			api.WithBaseURL(cfg.FMP.BaseURL),
			api.WithTimeout(cfg.FMPTimeout()),
			api.WithRateLimiter(limiter),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(logger.ComponentEnabled("fmp", slog.LevelDebug)),
		),
		apiKeyEnv:     cfg.FMP.APIKeyEnv,
		lookbackYears: cfg.FMP.EconomicLookbackYears,
		economic:      newEconomicCache(cfg.FMP.EconomicCacheSize, cfg.EconomicCacheTTL()),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func errorResult(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

// IsError reports whether a result is an error object.
func IsError(result map[string]any) bool {
	_, ok := result["error"]
	return ok
}

// Get fetches endpoint with params plus the API key. Objects are returned as is,
// arrays and scalars are wrapped as {"result": value}.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) map[string]any {
	apiKey := os.Getenv(c.apiKeyEnv)
	if apiKey == "" {
		return errorResult("%s environment variable not set", c.apiKeyEnv)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", apiKey)

	resp, err := c.http.GET(ctx, endpoint, q)
	if err != nil {
		if code := api.StatusCode(err); code != 0 {
			logger.Warn(ctx, "FMP request returned error status", "endpoint", endpoint, "status", code)
			return errorResult("Failed to fetch data: %d", code)
		}
		logger.Warn(ctx, "FMP request failed", "endpoint", endpoint, "error", err)
		return errorResult("Request failed: %v", err)
	}

	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		logger.Warn(ctx, "FMP response not JSON", "endpoint", endpoint, "error", err)
		return errorResult("Unexpected error: %v", err)
	}
	if obj, ok := decoded.(map[string]any); ok {
		return obj
	}
	return map[string]any{"result": decoded}
}
