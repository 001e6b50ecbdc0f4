package prompts

import (
	"strings"

	"stock-analysis-agent/internal/types"
)

// Fixed task texts. Each builder always ends with its task.
const (
	ProjectManagerTask = `[Role]
You are the project manager of a stock analysis firm. Read the user's query and write a concrete work order for each of the five teams:
1. Stock research team: news, market sentiment, price targets and analyst grades.
2. Financial team: balance sheet, income statement, cash flow and ratios, led by a senior financial advisor.
3. Technical analyst: moving averages, RSI, ADX and volatility.
4. Quantitative team: DCF and intrinsic value, growth, led by a senior quantitative advisor.
5. Macro economy team: how the US economy affects the stock market as a whole.

[Output]
Answer only with a JSON object in a fenced block, with all five keys:
` + "```json" + `
{
  "stock_researcher_instruction": "...",
  "financial_team_instruction": "...",
  "technical_analyst_instruction": "...",
  "quantitative_team_instruction": "...",
  "macro_economy_instruction": "..."
}
` + "```" + `
Every instruction names the ticker or company, reflects the user's horizon and risk appetite, and is specific enough for the team to work alone.`

	BalanceSheetTask = `[Description]
Analyze the company's balance sheet with the balance sheet tool. Fetch both period='quarter' and period='annual' data.
Focus on assets, liabilities, equity and the capital structure.

[Expected output]
A detailed balance sheet analysis covering quarterly and annual data, split into FACT and OPINION sections, in markdown.`

	IncomeStatementTask = `[Description]
Analyze the company's income statement with the income statement tool. Fetch both period='quarter' and period='annual' data.
Focus on revenue, margins and profitability trends.

[Expected output]
A detailed income statement analysis covering quarterly and annual data, split into FACT and OPINION sections, in markdown.`

	CashFlowTask = `[Description]
Analyze the company's cash flow statement with the cash flow tool. Fetch both period='quarter' and period='annual' data.
Focus on cash inflows, outflows and liquidity.

[Expected output]
A detailed cash flow analysis covering quarterly and annual data, split into FACT and OPINION sections, in markdown.`

	BasicFinancialTask = `[Description]
Use the financial ratios and key metrics tools to assess valuation, profitability, leverage and efficiency.

[Expected output]
A table of the key ratios with their trend and a short interpretation of each, split into FACT and OPINION sections, in markdown.`

	SeniorFinancialAdvisorTask = `[Expected output]
A comprehensive assessment of the company's financial health built on the specialist reports above.
Cover the income statement, balance sheet, cash flow, key metrics and ratios in detail.
The hedge fund manager will base the investment decision on this report.
Split it into FACT and OPINION sections and use markdown.`

	StockResearcherTask = `[Description]
Collect recent company news, price target news and historical analyst grades with the provided tools.
Summarize events that could move the stock and how the market reacted.

[Expected output]
A research brief of the most relevant news and grade changes with dates and sources, in markdown.`

	WebResearcherTask = `[Description]
Search the web for the latest news, commentary and investor sentiment about the company with the web_search tool.
Complement the FMP news tool; search several phrasings before concluding.

[Expected output]
A summary of web sentiment, the main news points and how opinion is trending.
The senior research advisor will pass this on, so keep it factual and objective.`

	AnalystOpinionTask = `[Description]
Use the price target summary, price target news, historical grades and analyst estimates tools to describe the analyst consensus.

[Expected output]
The consensus target range, recent upgrades and downgrades and estimate revisions, with a short reading of what they imply, in markdown.`

	SeniorResearchAdvisorTask = `[Expected output]
An integrated research report combining web sentiment with analyst opinion.
Explain where they agree or diverge, the resulting risk and the investment signal.
The hedge fund manager relies on this report, so split it into FACT and OPINION sections and use markdown.`

	TechnicalAnalystTask = `[Description]
Run a technical analysis with the provided tools:
- the moving average tools for mid and long term trend
- the RSI tool for momentum and overbought or oversold conditions
- the ADX tool for trend strength
- the standard deviation tool for volatility

[Expected output]
SMA trend, RSI reading, volatility, support and resistance levels and, most importantly, entry points, price targets and risk.`

	IntrinsicValueTask = `[Description]
Estimate the company's intrinsic value with the DCF, GuruFocus DCF, owner earnings, enterprise value and TTM key metrics tools.
Compare the estimates with the current price and state the margin of safety.

[Expected output]
A valuation report with each method's result, the spread between them and whether the stock looks under or over valued, in markdown.`

	GrowthTask = `[Description]
Measure growth with the balance sheet, income statement and cash flow growth tools.
Look at the consistency and quality of growth across quarters.

[Expected output]
A growth report with the key growth rates, their trend and a growth rank score from 1 to 10, in markdown.`

	SeniorQuantAdvisorTask = `[Expected output]
A comprehensive assessment of the company's intrinsic value and growth potential with a growth rank score.
Include the intrinsic value and growth analyses in detail.
The hedge fund manager will use this report to make the investment decision.
Split it into FACT and OPINION sections and use markdown.`

	MacroTask = `[Description]
Analyze the US economic environment, market trends and global events that can move the stock market.
Call the economic indicators tool several times with different indicator names (for example GDP, CPI, federalFunds, unemploymentRate) to cover the picture.

[Expected output]
A detailed report on the macro environment and its likely impact on equities.`

	HedgeFundManagerTask = `Give a detailed investment recommendation for the company's stock. This is the report the user receives.

The report MUST begin with one of these ratings in capital letters: BUY, SELL or HOLD.

Include these sections:
[Basic information] company name, ticker, report date
[Investment decision] BUY, SELL or HOLD with a detailed justification
[Financial health] the senior financial advisor's key yearly and quarterly metrics
[Technical view] trend, momentum and entry or exit timing
[Quantitative view] intrinsic value and growth potential
[Macro view] how the economy affects the market and this stock
[Rationale] how each analysis contributed to the decision, plus the investment risks

Use markdown for readability; tables are welcome.`
)

// ProjectManager asks for the per-team JSON work orders.
func ProjectManager(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	userQuery(&b, s)
	b.WriteString(ProjectManagerTask)
	return b.String()
}

func BalanceSheet(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamFinancial, "balance sheet analyst")
	sharedPreamble(&b, s)
	b.WriteString(BalanceSheetTask)
	return b.String()
}

func IncomeStatement(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamFinancial, "income statement analyst")
	sharedPreamble(&b, s)
	b.WriteString(IncomeStatementTask)
	return b.String()
}

func CashFlow(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamFinancial, "cash flow statement analyst")
	sharedPreamble(&b, s)
	b.WriteString(CashFlowTask)
	return b.String()
}

func BasicFinancial(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamFinancial, "financial ratio analyst")
	sharedPreamble(&b, s)
	b.WriteString(BasicFinancialTask)
	return b.String()
}

// SeniorFinancialAdvisor synthesizes the four statement analyses.
func SeniorFinancialAdvisor(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	b.WriteString("[Description]\nSynthesize the overall financial performance from these analyses.\n\n")
	upstream(&b, s, "Income statement", types.KeyIncomeStatement)
	upstream(&b, s, "Balance sheet", types.KeyBalanceSheet)
	upstream(&b, s, "Cash flow statement", types.KeyCashFlowStatement)
	upstream(&b, s, "Basic financial analysis", types.KeyBasicFinancial)
	reportDate(&b, s)
	b.WriteString(SeniorFinancialAdvisorTask)
	return b.String()
}

func StockResearcher(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamStockResearch, "news researcher")
	sharedPreamble(&b, s)
	userQuery(&b, s)
	reportDate(&b, s)
	b.WriteString(StockResearcherTask)
	return b.String()
}

func WebResearcher(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	userQuery(&b, s)
	if note := teamInstruction(s, types.TeamStockResearch); note != "" {
		section(&b, "Research director's instruction", note)
	}
	reportDate(&b, s)
	b.WriteString(WebResearcherTask)
	return b.String()
}

func AnalystOpinion(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	userQuery(&b, s)
	if note := teamInstruction(s, types.TeamStockResearch); note != "" {
		section(&b, "Research director's instruction", note)
	}
	reportDate(&b, s)
	b.WriteString(AnalystOpinionTask)
	return b.String()
}

// SeniorResearchAdvisor merges the web research and analyst opinion reports.
func SeniorResearchAdvisor(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	userQuery(&b, s)
	b.WriteString("[Description]\nCombine the research team's findings into one report.\n\n")
	upstream(&b, s, "Stock news research", types.KeyStockResearcher)
	upstream(&b, s, "Web research", types.KeyWebResearcher)
	upstream(&b, s, "Analyst opinion", types.KeyAnalystOpinion)
	reportDate(&b, s)
	b.WriteString(SeniorResearchAdvisorTask)
	return b.String()
}

func TechnicalAnalyst(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamTechnical, "technical analyst")
	sharedPreamble(&b, s)
	reportDate(&b, s)
	b.WriteString(TechnicalAnalystTask)
	return b.String()
}

func IntrinsicValue(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamQuantitative, "intrinsic value analyst")
	sharedPreamble(&b, s)
	reportDate(&b, s)
	b.WriteString(IntrinsicValueTask)
	return b.String()
}

func Growth(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamQuantitative, "growth analyst")
	sharedPreamble(&b, s)
	b.WriteString(GrowthTask)
	return b.String()
}

// SeniorQuantAdvisor merges the intrinsic value and growth reports.
func SeniorQuantAdvisor(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	b.WriteString("[Description]\nSynthesize these analyses.\n\n")
	upstream(&b, s, "Growth analysis", types.KeyGrowthAnalyst)
	upstream(&b, s, "Intrinsic value analysis", types.KeyIntrinsicValue)
	reportDate(&b, s)
	b.WriteString(SeniorQuantAdvisorTask)
	return b.String()
}

func Macro(s State) string {
	var b strings.Builder
	pmSection(&b, s, types.TeamMacro, "macro economist")
	sharedPreamble(&b, s)
	reportDate(&b, s)
	b.WriteString(MacroTask)
	return b.String()
}

// HedgeFundManager reads every team's final output.
func HedgeFundManager(s State) string {
	var b strings.Builder
	sharedPreamble(&b, s)
	userQuery(&b, s)
	b.WriteString("[Description]\nCombine the following results into a detailed investment recommendation.\n\n")
	upstream(&b, s, "Research", types.KeySeniorResearchAdvisor)
	upstream(&b, s, "Financial analysis", types.KeySeniorFinancialAdvisor)
	upstream(&b, s, "Technical analysis", types.KeyTechnicalAnalyst)
	upstream(&b, s, "Quantitative analysis", types.KeySeniorQuantAdvisor)
	upstream(&b, s, "Macro economy", types.KeyEconomicIndicators)
	reportDate(&b, s)
	b.WriteString(HedgeFundManagerTask)
	return b.String()
}

// ForAgent maps each agent name to its builder.
var ForAgent = map[string]Builder{
	types.AgentProjectManager:        ProjectManager,
	types.AgentStockResearcher:       StockResearcher,
	types.AgentWebResearcher:         WebResearcher,
	types.AgentAnalystOpinion:        AnalystOpinion,
	types.AgentSeniorResearchAdvisor: SeniorResearchAdvisor,
	types.AgentBalanceSheet:          BalanceSheet,
	types.AgentIncomeStatement:       IncomeStatement,
	types.AgentCashFlowStatement:     CashFlow,
	types.AgentBasicFinancial:        BasicFinancial,
	types.AgentSeniorFinancial:       SeniorFinancialAdvisor,
	types.AgentTechnicalAnalyst:      TechnicalAnalyst,
	types.AgentIntrinsicValue:        IntrinsicValue,
	types.AgentGrowthAnalyst:         Growth,
	types.AgentSeniorQuant:           SeniorQuantAdvisor,
	types.AgentEconomicIndicators:    Macro,
	types.AgentHedgeFundManager:      HedgeFundManager,
}
