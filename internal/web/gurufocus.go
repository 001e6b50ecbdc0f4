package web

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stock-analysis-agent/internal/api"
	"stock-analysis-agent/internal/logger"
)

var (
	nuxtPriceRe     = regexp.MustCompile(`price:(\d+\.?\d*),`)
	nuxtFairValueRe = regexp.MustCompile(`iv_dcEarning:(-?\d+\.?\d*|a),`)
)

const lowPredictabilityText = "low predictability of business"

// GuruFocus scrapes the DCF calculator page for a ticker.
type GuruFocus struct {
	client *api.Client
}

func NewGuruFocus(baseURL string, timeout time.Duration) *GuruFocus {
	return &GuruFocus{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
		),
	}
}

// DCF returns {ticker, stock_price, fair_value, margin_of_safety, low_predictability}.
// A fair value of "a" on the page means GuruFocus has none, reported as "N/A".
func (g *GuruFocus) DCF(ctx context.Context, ticker string) map[string]any {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	resp, err := g.client.GET(ctx, "dcf-calculator", url.Values{"ticker": {ticker}}, api.BrowserHeaders())
	if err != nil {
		logger.Warn(ctx, "GuruFocus request failed", "ticker", ticker, "error", err)
		return map[string]any{"error": fmt.Sprintf("failed to fetch %s DCF page: %v", ticker, err)}
	}

	result, err := parseDCFPage(ticker, resp.Body)
	if err != nil {
		logger.Warn(ctx, "GuruFocus parse failed", "ticker", ticker, "error", err)
		return map[string]any{"error": err.Error()}
	}
	return result
}

func parseDCFPage(ticker string, page []byte) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s DCF page: %w", ticker, err)
	}

	lowPredictability := false
	doc.Find("span.el-alert__title").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.TrimSpace(s.Text()), lowPredictabilityText) {
			lowPredictability = true
			return false
		}
		return true
	})

	var script string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := s.Text(); strings.Contains(text, "window.__NUXT__=") {
			script = text
			return false
		}
		return true
	})
	if script == "" {
		return nil, fmt.Errorf("NUXT data script not found for %s", ticker)
	}

	priceMatch := nuxtPriceRe.FindStringSubmatch(script)
	if priceMatch == nil {
		return nil, fmt.Errorf("stock price not found for %s", ticker)
	}
	price, err := strconv.ParseFloat(priceMatch[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid stock price for %s: %w", ticker, err)
	}

	result := map[string]any{
		"ticker":             ticker,
		"stock_price":        fmt.Sprintf("$ %.2f", price),
		"fair_value":         "N/A",
		"margin_of_safety":   "N/A",
		"low_predictability": lowPredictability,
	}

	fvMatch := nuxtFairValueRe.FindStringSubmatch(script)
	if fvMatch == nil || fvMatch[1] == "a" {
		return result, nil
	}
	fairValue, err := strconv.ParseFloat(fvMatch[1], 64)
	if err != nil {
		return result, nil
	}

	result["fair_value"] = fmt.Sprintf("$ %.2f", fairValue)
	result["margin_of_safety"] = formatMargin(fairValue, price)
	return result, nil
}

// marginOfSafety is (fair - price) / |fair| in percent. It is undefined for a
// zero fair value.
func marginOfSafety(fairValue, price float64) (float64, bool) {
	if fairValue == 0 {
		return 0, false
	}
	return (fairValue - price) / math.Abs(fairValue) * 100, true
}

func formatMargin(fairValue, price float64) string {
	m, ok := marginOfSafety(fairValue, price)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", m)
}
