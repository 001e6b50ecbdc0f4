package fmp

import (
	"context"
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"stock-analysis-agent/internal/logger"
)

// --- Arg types ---

type TickerArgs struct {
	Ticker string `json:"ticker" jsonschema:"Stock ticker symbol, e.g. AAPL"`
}

type StatementArgs struct {
	Ticker string `json:"ticker" jsonschema:"Stock ticker symbol, e.g. AAPL"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Number of periods to return, default 5"`
	Period string `json:"period,omitempty" jsonschema:"Q1, Q2, Q3, Q4, FY, annual or quarter. Default annual"`
}

type IndicatorArgs struct {
	Name string `json:"name" jsonschema:"Indicator name: GDP, realGDP, federalFunds, CPI, inflationRate, inflation, totalNonfarmPayroll, unemploymentRate, consumerSentiment, retailSales, industrialProductionTotalIndex, initialClaims"`
}

const (
	defaultStatementLimit  = 5
	defaultStatementPeriod = "annual"
)

func (a StatementArgs) normalized() StatementArgs {
	if a.Limit <= 0 {
		a.Limit = defaultStatementLimit
	}
	if a.Period == "" {
		a.Period = defaultStatementPeriod
	}
	return a
}

type tickerFunc func(ctx context.Context, ticker string) map[string]any

type tickerTool struct {
	name        string
	description string
	fn          tickerFunc
}

func newTickerTool(spec tickerTool) (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{Name: spec.name, Description: spec.description},
		func(ctx tool.Context, args TickerArgs) (map[string]any, error) {
			if args.Ticker == "" {
				return errorResult("ticker is required"), nil
			}
			logger.Debug(ctx, "Tool call", "tool", spec.name, "ticker", args.Ticker)
			return spec.fn(ctx, args.Ticker), nil
		},
	)
}

type statementFunc func(ctx context.Context, ticker string, limit int, period string) map[string]any

func newStatementTool(name, description string, fn statementFunc) (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{Name: name, Description: description},
		func(ctx tool.Context, args StatementArgs) (map[string]any, error) {
			if args.Ticker == "" {
				return errorResult("ticker is required"), nil
			}
			args = args.normalized()
			logger.Debug(ctx, "Tool call", "tool", name, "ticker", args.Ticker, "limit", args.Limit, "period", args.Period)
			return fn(ctx, args.Ticker, args.Limit, args.Period), nil
		},
	)
}

func buildTickerTools(specs ...tickerTool) ([]tool.Tool, error) {
	out := make([]tool.Tool, 0, len(specs))
	for _, spec := range specs {
		t, err := newTickerTool(spec)
		if err != nil {
			return nil, fmt.Errorf("%s tool: %w", spec.name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func single(t tool.Tool, err error) ([]tool.Tool, error) {
	if err != nil {
		return nil, err
	}
	return []tool.Tool{t}, nil
}

// --- Tool specs ---

func (c *Client) priceTargetSummarySpec() tickerTool {
	return tickerTool{"fmp_price_target_summary",
		"Analyst price target summary over the last month, quarter, year and all time.",
		c.PriceTargetSummary}
}

func (c *Client) priceTargetNewsSpec() tickerTool {
	return tickerTool{"fmp_price_target_news",
		"Latest analyst price target updates with publisher, analyst and target price.",
		c.PriceTargetNews}
}

func (c *Client) historicalGradeSpec() tickerTool {
	return tickerTool{"fmp_historical_stock_grade",
		"Historical count of analyst buy, hold and sell grades.",
		c.HistoricalGrades}
}

func (c *Client) stockNewsSpec() tickerTool {
	return tickerTool{"fmp_stock_news",
		"Most recent news articles about the company.",
		c.StockNews}
}

func (c *Client) analystEstimatesSpec() tickerTool {
	return tickerTool{"fmp_analyst_estimates",
		"Annual analyst estimates for revenue, EBITDA, EPS and net income.",
		c.AnalystEstimates}
}

// --- Tool groups, one per agent ---

func (c *Client) BalanceSheetTools() ([]tool.Tool, error) {
	return single(newStatementTool("fmp_balance_sheet",
		"Reported balance sheet: assets, liabilities and shareholder equity. Check quarter data for the latest figures.",
		c.BalanceSheet))
}

func (c *Client) IncomeStatementTools() ([]tool.Tool, error) {
	return single(newStatementTool("fmp_income_statement",
		"Reported income statement: revenue, operating expenses, net income and EPS.",
		c.IncomeStatement))
}

func (c *Client) CashFlowTools() ([]tool.Tool, error) {
	return single(newStatementTool("fmp_cash_flow_statement",
		"Reported cash flow statement: operating, investing and financing cash flows.",
		c.CashFlowStatement))
}

func (c *Client) BasicFinancialTools() ([]tool.Tool, error) {
	return buildTickerTools(
		tickerTool{"fmp_key_metrics", "Key metrics: revenue per share, P/E, ROE, debt to equity and more.", c.KeyMetrics},
		tickerTool{"fmp_financial_ratios", "Profitability, liquidity, leverage and efficiency ratios.", c.FinancialRatios},
	)
}

func (c *Client) IntrinsicValueTools() ([]tool.Tool, error) {
	return buildTickerTools(
		tickerTool{"fmp_dcf_valuation", "Discounted cash flow fair value and current price.", c.DCFValuation},
		tickerTool{"fmp_owner_earnings", "Owner earnings per share and its components.", c.OwnerEarnings},
		tickerTool{"fmp_enterprise_value", "Enterprise value history with market cap, debt and cash.", c.EnterpriseValues},
		tickerTool{"fmp_key_metrics_ttm", "Trailing twelve month key metrics.", c.KeyMetricsTTM},
	)
}

func (c *Client) GrowthTools() ([]tool.Tool, error) {
	return buildTickerTools(
		tickerTool{"fmp_balance_sheet_statement_growth", "Quarterly growth rates of balance sheet items.", c.BalanceSheetGrowth},
		tickerTool{"fmp_income_statement_growth", "Quarterly growth rates of income statement items.", c.IncomeStatementGrowth},
		tickerTool{"fmp_cash_flow_statement_growth", "Quarterly growth rates of cash flow items.", c.CashFlowGrowth},
	)
}

func (c *Client) TechnicalTools() ([]tool.Tool, error) {
	return buildTickerTools(
		tickerTool{"fmp_simple_moving_average_mid_term_trend", "30 day simple moving average on daily candles.", c.SMAMid},
		tickerTool{"fmp_simple_moving_average_long_term_trend", "100 day simple moving average on daily candles.", c.SMALong},
		tickerTool{"fmp_relative_strength_index", "10 day relative strength index on daily candles.", c.RSI},
		tickerTool{"fmp_average_directional_index", "14 day average directional index on daily candles.", c.ADX},
		tickerTool{"fmp_standard_deviation", "10 day standard deviation of closing prices.", c.StandardDeviation},
	)
}

func (c *Client) StockResearchTools() ([]tool.Tool, error) {
	return buildTickerTools(
		c.stockNewsSpec(),
		c.priceTargetSummarySpec(),
		c.priceTargetNewsSpec(),
		c.historicalGradeSpec(),
	)
}

func (c *Client) AnalystOpinionTools() ([]tool.Tool, error) {
	return buildTickerTools(
		c.priceTargetSummarySpec(),
		c.priceTargetNewsSpec(),
		c.historicalGradeSpec(),
		c.analystEstimatesSpec(),
	)
}

func (c *Client) WebNewsTools() ([]tool.Tool, error) {
	return buildTickerTools(c.stockNewsSpec())
}

func (c *Client) MacroTools() ([]tool.Tool, error) {
	return single(functiontool.New(
		functiontool.Config{
			Name:        "fmp_economic_indicators",
			Description: "US economic indicator series for the last three years. Call it once per indicator to cover GDP, rates, inflation, labour and sentiment.",
		},
		func(ctx tool.Context, args IndicatorArgs) (map[string]any, error) {
			if args.Name == "" {
				return errorResult("name is required"), nil
			}
			logger.Debug(ctx, "Tool call", "tool", "fmp_economic_indicators", "name", args.Name)
			return c.EconomicIndicator(ctx, args.Name), nil
		},
	))
}
