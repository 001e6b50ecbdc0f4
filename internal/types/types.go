package types

import (
	"strings"
	"time"
)

// Action is the headline call of a final investment report.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction reads the leading word of a report. Anything unrecognised is HOLD.
func ParseAction(report string) Action {
	s := strings.TrimSpace(report)
	s = strings.TrimLeft(s, "#*_> \t\r\n")
	word := s
	if i := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
	}); i >= 0 {
		word = s[:i]
	}
	switch Action(strings.ToUpper(word)) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// AgentResult is one agent's persisted output.
type AgentResult struct {
	AgentName   string         `json:"agent_name"`
	Content     string         `json:"content"`
	Timestamp   string         `json:"timestamp"`
	UserID      string         `json:"user_id"`
	SessionID   string         `json:"session_id"`
	StockSymbol string         `json:"stock_symbol"`
	Metadata    map[string]any `json:"metadata"`
}

// Recommendation is the outcome of one full pipeline run.
type Recommendation struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	StockSymbol string            `json:"stock_symbol"`
	Action      Action            `json:"action"`
	Report      string            `json:"report"`
	Interrupted bool              `json:"interrupted"`
	Results     map[string]string `json:"results"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
}

// PMInstructions maps a team key to the project manager's note for that team.
type PMInstructions map[string]string

// Team keys the project manager fills in its JSON answer.
const (
	TeamStockResearch = "stock_researcher_instruction"
	TeamFinancial     = "financial_team_instruction"
	TeamTechnical     = "technical_analyst_instruction"
	TeamQuantitative  = "quantitative_team_instruction"
	TeamMacro         = "macro_economy_instruction"
)

// TeamKeys lists the project manager's team keys in prompt order.
var TeamKeys = []string{TeamStockResearch, TeamFinancial, TeamTechnical, TeamQuantitative, TeamMacro}

// Session state keys seeded at the start of a run.
const (
	KeyUniqueID          = "unique_id"
	KeyTimestamp         = "timestamp"
	KeyUserID            = "user_id"
	KeyStockSymbol       = "stock_symbol"
	KeyUserQuery         = "user_query"
	KeySharedInstruction = "shared_instruction"
)

// Output keys written by agents.
const (
	KeyPMInstructions         = "pm_instructions"
	KeyStockResearcher        = "stock_researcher_result"
	KeyWebResearcher          = "web_researcher_result"
	KeyAnalystOpinion         = "analyst_opinion_analyst_result"
	KeySeniorResearchAdvisor  = "senior_research_advisor_result"
	KeyBalanceSheet           = "balance_sheet_result"
	KeyIncomeStatement        = "income_statement_result"
	KeyCashFlowStatement      = "cash_flow_statement_result"
	KeyBasicFinancial         = "basic_financial_analyst_result"
	KeySeniorFinancialAdvisor = "senior_financial_advisor_result"
	KeyTechnicalAnalyst       = "technical_analyst_result"
	KeyIntrinsicValue         = "intrinsic_value_result"
	KeyGrowthAnalyst          = "growth_analyst_result"
	KeySeniorQuantAdvisor     = "senior_quantitative_advisor_result"
	KeyEconomicIndicators     = "economic_indicators_result"
	KeyFinalInvestment        = "final_investment_result"
)

// Agent names. These double as model-routing keys.
const (
	AgentProjectManager        = "project_manager_agent"
	AgentStockResearcher       = "stock_researcher_agent"
	AgentWebResearcher         = "web_researcher_agent"
	AgentAnalystOpinion        = "analyst_opinion_analyst_agent"
	AgentSeniorResearchAdvisor = "senior_research_advisor_agent"
	AgentBalanceSheet          = "balance_sheet_agent"
	AgentIncomeStatement       = "income_statement_agent"
	AgentCashFlowStatement     = "cash_flow_statement_agent"
	AgentBasicFinancial        = "basic_financial_analyst_agent"
	AgentSeniorFinancial       = "senior_financial_advisor_agent"
	AgentTechnicalAnalyst      = "technical_analyst_agent"
	AgentIntrinsicValue        = "intrinsic_value_analyst_agent"
	AgentGrowthAnalyst         = "growth_analyst_agent"
	AgentSeniorQuant           = "senior_quantitative_advisor_agent"
	AgentEconomicIndicators    = "economic_indicators_agent"
	AgentHedgeFundManager      = "hedge_fund_manager_agent"
)

// OutputKeys lists every agent output key in pipeline order.
var OutputKeys = []string{
	KeyPMInstructions,
	KeyStockResearcher,
	KeyWebResearcher,
	KeyAnalystOpinion,
	KeySeniorResearchAdvisor,
	KeyBalanceSheet,
	KeyIncomeStatement,
	KeyCashFlowStatement,
	KeyBasicFinancial,
	KeySeniorFinancialAdvisor,
	KeyTechnicalAnalyst,
	KeyIntrinsicValue,
	KeyGrowthAnalyst,
	KeySeniorQuantAdvisor,
	KeyEconomicIndicators,
	KeyFinalInvestment,
}

// AgentOutputKey maps each LLM agent to the state key it writes.
var AgentOutputKey = map[string]string{
	AgentProjectManager:        KeyPMInstructions,
	AgentStockResearcher:       KeyStockResearcher,
	AgentWebResearcher:         KeyWebResearcher,
	AgentAnalystOpinion:        KeyAnalystOpinion,
	AgentSeniorResearchAdvisor: KeySeniorResearchAdvisor,
	AgentBalanceSheet:          KeyBalanceSheet,
	AgentIncomeStatement:       KeyIncomeStatement,
	AgentCashFlowStatement:     KeyCashFlowStatement,
	AgentBasicFinancial:        KeyBasicFinancial,
	AgentSeniorFinancial:       KeySeniorFinancialAdvisor,
	AgentTechnicalAnalyst:      KeyTechnicalAnalyst,
	AgentIntrinsicValue:        KeyIntrinsicValue,
	AgentGrowthAnalyst:         KeyGrowthAnalyst,
	AgentSeniorQuant:           KeySeniorQuantAdvisor,
	AgentEconomicIndicators:    KeyEconomicIndicators,
	AgentHedgeFundManager:      KeyFinalInvestment,
}

// IsOutputKey reports whether key is written by one of the pipeline agents.
func IsOutputKey(key string) bool {
	for _, k := range OutputKeys {
		if k == key {
			return true
		}
	}
	return false
}
