package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/parallelagent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"

	"stock-analysis-agent/internal/types"
)

// Names of the workflow agents that compose the tree.
const (
	RootAgentName         = "root_agent"
	DepartmentAgentName   = "stock_analysis_department"
	ResearchTeamName      = "stock_research_team"
	ParallelResearchName  = "parallel_research_agents"
	FinancialTeamName     = "financial_team"
	ParallelFinancialName = "parallel_financial_agent"
	QuantTeamName         = "quantitative_analysis_team"
	ParallelQuantName     = "quantitative_analysis_agents"
)

func parallel(name, description string, subs ...agent.Agent) (agent.Agent, error) {
	return parallelagent.New(parallelagent.Config{
		AgentConfig: agent.Config{
			Name:        name,
			Description: description,
			SubAgents:   subs,
		},
	})
}

func sequential(name, description string, subs ...agent.Agent) (agent.Agent, error) {
	return sequentialagent.New(sequentialagent.Config{
		AgentConfig: agent.Config{
			Name:        name,
			Description: description,
			SubAgents:   subs,
		},
	})
}

// treeBuilder collects the first error so the tree reads top to bottom.
type treeBuilder struct {
	ctx    context.Context
	models ModelProvider
	specs  map[string]agentSpec
	err    error
}

func (b *treeBuilder) llm(name string) agent.Agent {
	if b.err != nil {
		return nil
	}
	spec, ok := b.specs[name]
	if !ok {
		b.err = fmt.Errorf("unknown agent %s", name)
		return nil
	}
	a, err := newLLMAgent(b.ctx, b.models, spec)
	if err != nil {
		b.err = err
	}
	return a
}

func (b *treeBuilder) parallel(name, description string, subs ...agent.Agent) agent.Agent {
	if b.err != nil {
		return nil
	}
	a, err := parallel(name, description, subs...)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", name, err)
	}
	return a
}

func (b *treeBuilder) sequential(name, description string, subs ...agent.Agent) agent.Agent {
	if b.err != nil {
		return nil
	}
	a, err := sequential(name, description, subs...)
	if err != nil {
		b.err = fmt.Errorf("%s: %w", name, err)
	}
	return a
}

// BuildTree composes the full analysis pipeline:
//
//	root_agent (sequential)
//	├── project_manager_agent
//	├── stock_analysis_department (parallel)
//	│   ├── stock_research_team: [stock_researcher | web_researcher | analyst_opinion] → senior_research_advisor
//	│   ├── financial_team: [balance_sheet | income_statement | cash_flow | basic_financial] → senior_financial_advisor
//	│   ├── technical_analyst_agent
//	│   ├── quantitative_analysis_team: [intrinsic_value | growth] → senior_quantitative_advisor
//	│   └── economic_indicators_agent
//	└── hedge_fund_manager_agent
func BuildTree(ctx context.Context, models ModelProvider, tools Toolbox) (agent.Agent, error) {
	b := &treeBuilder{ctx: ctx, models: models, specs: tools.specs()}

	research := b.sequential(ResearchTeamName,
		"Runs the news, web and analyst opinion research in parallel, then the senior research advisor.",
		b.parallel(ParallelResearchName,
			"Runs the stock, web and analyst opinion researchers in parallel.",
			b.llm(types.AgentStockResearcher),
			b.llm(types.AgentWebResearcher),
			b.llm(types.AgentAnalystOpinion),
		),
		b.llm(types.AgentSeniorResearchAdvisor),
	)

	financial := b.sequential(FinancialTeamName,
		"Runs the financial statement analysts, then the senior financial advisor.",
		b.parallel(ParallelFinancialName,
			"Analyzes the balance sheet, income statement, cash flow and ratios in parallel.",
			b.llm(types.AgentBalanceSheet),
			b.llm(types.AgentIncomeStatement),
			b.llm(types.AgentCashFlowStatement),
			b.llm(types.AgentBasicFinancial),
		),
		b.llm(types.AgentSeniorFinancial),
	)

	quant := b.sequential(QuantTeamName,
		"Runs the intrinsic value and growth analysts, then the senior quantitative advisor.",
		b.parallel(ParallelQuantName,
			"Runs the intrinsic value and growth analyses in parallel.",
			b.llm(types.AgentIntrinsicValue),
			b.llm(types.AgentGrowthAnalyst),
		),
		b.llm(types.AgentSeniorQuant),
	)

	department := b.parallel(DepartmentAgentName,
		"Runs stock research, financial, technical, quantitative and macro analysis in parallel.",
		research,
		financial,
		b.llm(types.AgentTechnicalAnalyst),
		quant,
		b.llm(types.AgentEconomicIndicators),
	)

	root := b.sequential(RootAgentName,
		"Plans the analysis, runs every team and writes the final investment recommendation.",
		b.llm(types.AgentProjectManager),
		department,
		b.llm(types.AgentHedgeFundManager),
	)

	if b.err != nil {
		return nil, b.err
	}
	return root, nil
}
