package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/fmp"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/prompts"
	"stock-analysis-agent/internal/types"
	"stock-analysis-agent/internal/web"
)

// ModelProvider returns the model an agent runs on.
type ModelProvider interface {
	ForAgent(ctx context.Context, agentName string) (model.LLM, error)
}

// Toolbox holds the data sources behind the agents' tools.
type Toolbox struct {
	FMP       *fmp.Client
	GuruFocus *web.GuruFocus
	Search    *web.Searcher
}

type toolsFunc func() ([]tool.Tool, error)

type agentSpec struct {
	name        string
	description string
	tools       []toolsFunc
	after       []agent.AfterAgentCallback
}

// specs describes every LLM agent of the pipeline. Senior advisors, the
// project manager and the hedge fund manager read state only and get no tools.
func (tb Toolbox) specs() map[string]agentSpec {
	guru := func() ([]tool.Tool, error) { return oneTool(tb.GuruFocus.Tool()) }
	search := func() ([]tool.Tool, error) { return oneTool(tb.Search.Tool()) }

	list := []agentSpec{
		{
			name:        types.AgentProjectManager,
			description: "Project manager who turns the user's query into work orders for each analysis team.",
			after:       []agent.AfterAgentCallback{parsePMInstructions},
		},
		{
			name:        types.AgentStockResearcher,
			description: "Researches company news, price target news and analyst grade changes.",
			tools:       []toolsFunc{tb.FMP.StockResearchTools},
		},
		{
			name:        types.AgentWebResearcher,
			description: "Searches the web for news, commentary and market sentiment about the company.",
			tools:       []toolsFunc{search, tb.FMP.WebNewsTools},
		},
		{
			name:        types.AgentAnalystOpinion,
			description: "Analyzes analyst price targets, grades and estimate revisions.",
			tools:       []toolsFunc{tb.FMP.AnalystOpinionTools},
		},
		{
			name:        types.AgentSeniorResearchAdvisor,
			description: "Senior research advisor who combines web sentiment with analyst opinion.",
		},
		{
			name:        types.AgentBalanceSheet,
			description: "Balance sheet analyst focused on assets, liabilities and capital structure.",
			tools:       []toolsFunc{tb.FMP.BalanceSheetTools},
		},
		{
			name:        types.AgentIncomeStatement,
			description: "Income statement analyst focused on revenue, margins and profitability.",
			tools:       []toolsFunc{tb.FMP.IncomeStatementTools},
		},
		{
			name:        types.AgentCashFlowStatement,
			description: "Cash flow analyst who tracks inflows and outflows to judge liquidity.",
			tools:       []toolsFunc{tb.FMP.CashFlowTools},
		},
		{
			name:        types.AgentBasicFinancial,
			description: "Financial ratio analyst covering valuation, profitability and leverage metrics.",
			tools:       []toolsFunc{tb.FMP.BasicFinancialTools},
		},
		{
			name:        types.AgentSeniorFinancial,
			description: "Senior financial advisor who leads the financial team and synthesizes its reports.",
		},
		{
			name:        types.AgentTechnicalAnalyst,
			description: "Technical analyst using moving averages, RSI, ADX and volatility.",
			tools:       []toolsFunc{tb.FMP.TechnicalTools},
		},
		{
			name:        types.AgentIntrinsicValue,
			description: "Intrinsic value analyst using DCF, owner earnings and enterprise value.",
			tools:       []toolsFunc{tb.FMP.IntrinsicValueTools, guru},
		},
		{
			name:        types.AgentGrowthAnalyst,
			description: "Growth analyst measuring statement growth and its consistency.",
			tools:       []toolsFunc{tb.FMP.GrowthTools},
		},
		{
			name:        types.AgentSeniorQuant,
			description: "Senior quantitative advisor who combines valuation and growth into a rank.",
		},
		{
			name:        types.AgentEconomicIndicators,
			description: "Macro economist analyzing the US economy and its effect on equities.",
			tools:       []toolsFunc{tb.FMP.MacroTools},
		},
		{
			name:        types.AgentHedgeFundManager,
			description: "Hedge fund manager who writes the final BUY, SELL or HOLD recommendation.",
		},
	}

	out := make(map[string]agentSpec, len(list))
	for _, s := range list {
		out[s.name] = s
	}
	return out
}

func oneTool(t tool.Tool, err error) ([]tool.Tool, error) {
	if err != nil {
		return nil, err
	}
	return []tool.Tool{t}, nil
}

// newLLMAgent builds one agent. Each call returns a fresh instance since an
// agent can only have one parent in the tree.
func newLLMAgent(ctx context.Context, models ModelProvider, spec agentSpec) (agent.Agent, error) {
	build, ok := prompts.ForAgent[spec.name]
	if !ok {
		return nil, fmt.Errorf("no instruction builder for %s", spec.name)
	}

	llm, err := models.ForAgent(ctx, spec.name)
	if err != nil {
		return nil, fmt.Errorf("model for %s: %w", spec.name, err)
	}

	var tools []tool.Tool
	for _, fn := range spec.tools {
		ts, err := fn()
		if err != nil {
			return nil, fmt.Errorf("tools for %s: %w", spec.name, err)
		}
		tools = append(tools, ts...)
	}

	logger.Debug(ctx, "Building agent", "agent", spec.name, "model", llm.Name(), "tools", len(tools))

	return llmagent.New(llmagent.Config{
		Name:                spec.name,
		Description:         spec.description,
		Model:               llm,
		InstructionProvider: prompts.Provider(build),
		Tools:               tools,
		OutputKey:           types.AgentOutputKey[spec.name],
		AfterAgentCallbacks: spec.after,
	})
}

// parsePMInstructions replaces the project manager's raw answer with the
// parsed team map so later builders can look teams up directly. The returned
// content carries the state change as its own event.
func parsePMInstructions(ctx agent.CallbackContext) (*genai.Content, error) {
	raw, _ := ctx.State().Get(types.KeyPMInstructions)
	parsed := prompts.ParsePMInstructions(raw)
	if len(parsed) == 0 {
		logger.Warn(ctx, "Project manager instructions could not be parsed; teams use their default instructions")
	} else {
		logger.Info(ctx, "Project manager instructions parsed", "teams", len(parsed))
	}
	if err := ctx.State().Set(types.KeyPMInstructions, parsed); err != nil {
		return nil, fmt.Errorf("store pm instructions: %w", err)
	}
	return genai.NewContentFromText(
		fmt.Sprintf("Work orders prepared for %d of %d teams.", len(parsed), len(types.TeamKeys)),
		genai.RoleModel,
	), nil
}
