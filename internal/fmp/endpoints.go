package fmp

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Technical indicator windows, all on daily candles.
const (
	rsiPeriod     = 10
	adxPeriod     = 14
	smaMidPeriod  = 30
	smaLongPeriod = 100
	stdDevPeriod  = 10
	timeframe     = "1day"
)

func symbolParams(ticker string) url.Values {
	return url.Values{"symbol": {strings.ToUpper(strings.TrimSpace(ticker))}}
}

func statementParams(ticker string, limit int, period string) url.Values {
	p := symbolParams(ticker)
	p.Set("limit", strconv.Itoa(limit))
	p.Set("period", period)
	return p
}

func technicalParams(ticker string, periodLength int) url.Values {
	p := symbolParams(ticker)
	p.Set("periodLength", strconv.Itoa(periodLength))
	p.Set("timeframe", timeframe)
	return p
}

func (c *Client) BalanceSheet(ctx context.Context, ticker string, limit int, period string) map[string]any {
	return c.Get(ctx, "balance-sheet-statement", statementParams(ticker, limit, period))
}

func (c *Client) IncomeStatement(ctx context.Context, ticker string, limit int, period string) map[string]any {
	return c.Get(ctx, "income-statement", statementParams(ticker, limit, period))
}

func (c *Client) CashFlowStatement(ctx context.Context, ticker string, limit int, period string) map[string]any {
	return c.Get(ctx, "cash-flow-statement", statementParams(ticker, limit, period))
}

func (c *Client) FinancialRatios(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "ratios", symbolParams(ticker))
}

func (c *Client) KeyMetrics(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "key-metrics", symbolParams(ticker))
}

func (c *Client) KeyMetricsTTM(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "key-metrics-ttm", symbolParams(ticker))
}

func (c *Client) DCFValuation(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "discounted-cash-flow", symbolParams(ticker))
}

func (c *Client) OwnerEarnings(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "owner-earnings", symbolParams(ticker))
}

func (c *Client) EnterpriseValues(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "enterprise-values", symbolParams(ticker))
}

func (c *Client) PriceTargetSummary(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "price-target-summary", symbolParams(ticker))
}

// PriceTargetNews uses the plural "symbols" parameter.
func (c *Client) PriceTargetNews(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "price-target-news", url.Values{
		"symbols": {strings.ToUpper(ticker)},
		"limit":   {"10"},
		"page":    {"0"},
	})
}

func (c *Client) HistoricalGrades(ctx context.Context, ticker string) map[string]any {
	p := symbolParams(ticker)
	p.Set("limit", "20")
	return c.Get(ctx, "grades-historical", p)
}

func (c *Client) StockNews(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "news/stock", url.Values{
		"symbols": {strings.ToUpper(ticker)},
		"limit":   {"50"},
	})
}

func (c *Client) AnalystEstimates(ctx context.Context, ticker string) map[string]any {
	p := symbolParams(ticker)
	p.Set("period", "annual")
	p.Set("page", "0")
	p.Set("limit", "10")
	return c.Get(ctx, "analyst-estimates", p)
}

func (c *Client) BalanceSheetGrowth(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "balance-sheet-statement-growth", statementParams(ticker, 10, "quarter"))
}

func (c *Client) IncomeStatementGrowth(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "income-statement-growth", statementParams(ticker, 10, "quarter"))
}

func (c *Client) CashFlowGrowth(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "cash-flow-statement-growth", statementParams(ticker, 10, "quarter"))
}

func (c *Client) RSI(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "technical-indicators/rsi", technicalParams(ticker, rsiPeriod))
}

func (c *Client) ADX(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "technical-indicators/adx", technicalParams(ticker, adxPeriod))
}

func (c *Client) SMAMid(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "technical-indicators/sma", technicalParams(ticker, smaMidPeriod))
}

func (c *Client) SMALong(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "technical-indicators/sma", technicalParams(ticker, smaLongPeriod))
}

func (c *Client) StandardDeviation(ctx context.Context, ticker string) map[string]any {
	return c.Get(ctx, "technical-indicators/standarddeviation", technicalParams(ticker, stdDevPeriod))
}

// EconomicIndicator returns the series for name (e.g. GDP, CPI, unemploymentRate)
// starting lookbackYears ago. Successful results are cached per name.
func (c *Client) EconomicIndicator(ctx context.Context, name string) map[string]any {
	if cached, ok := c.economic.get(name); ok {
		return cached
	}
	from := c.now().AddDate(-c.lookbackYears, 0, 0).Format("2006-01-02")
	result := c.Get(ctx, "economic-indicators", url.Values{
		"name": {name},
		"from": {from},
	})
	c.economic.set(name, result)
	return result
}
