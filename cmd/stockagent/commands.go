package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"google.golang.org/adk/session"

	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/pipeline"
	"stock-analysis-agent/internal/server"
	"stock-analysis-agent/internal/types"
)

var (
	analyzeUser    string
	analyzeSession string
	analyzeStream  bool
	analyzeJSON    bool

	serveAddr string

	modelsReload bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Run the full analysis pipeline for one query",
	Long: `Run every analysis team for the stock named in the query and print the
hedge fund manager's recommendation.

Examples:
  stockagent analyze "Please analyze AAPL"
  stockagent analyze --stream "Is $TSLA a buy right now?"
  stockagent analyze --json "NVDA 주식을 분석해줘" | jq .action`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show which model each agent runs on",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "User id (defaults to app.user_id)")
	analyzeCmd.Flags().StringVarP(&analyzeSession, "session", "s", "", "Session id (generated when empty)")
	analyzeCmd.Flags().BoolVar(&analyzeStream, "stream", false, "Print each agent's output as it arrives")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the recommendation as JSON")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr)")

	modelsCmd.Flags().BoolVar(&modelsReload, "reload", false, "Reload the routing table from its source first")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	registry, err := initializeRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	p, err := initializePipeline(ctx, cfg, registry, initializeResults(cfg))
	if err != nil {
		return err
	}

	req := pipeline.Request{
		UserID:    analyzeUser,
		SessionID: analyzeSession,
		Query:     strings.Join(args, " "),
	}

	out := cmd.OutOrStdout()
	var rec *types.Recommendation
	if analyzeStream {
		rec, err = p.Stream(ctx, req, func(ev *session.Event) error {
			printEvent(out, ev)
			return nil
		})
	} else {
		rec, err = p.Analyze(ctx, req)
	}
	if err != nil {
		return err
	}
	if rec.Interrupted {
		logger.Warn(ctx, "Analysis interrupted; the report may be incomplete", "session_id", rec.SessionID)
	}

	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	fmt.Fprintf(out, "\n%s (%s) session=%s\n\n%s\n", rec.Action, rec.StockSymbol, rec.SessionID, rec.Report)
	return nil
}

func printEvent(w io.Writer, ev *session.Event) {
	if ev.Partial || ev.Content == nil {
		return
	}
	var text strings.Builder
	for _, part := range ev.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "── %s ──\n%s\n\n", ev.Author, strings.TrimSpace(text.String()))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	registry, err := initializeRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	results := initializeResults(cfg)
	p, err := initializePipeline(ctx, cfg, registry, results)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return server.New(results, p, registry).ListenAndServe(ctx, addr)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	registry, err := initializeRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	if modelsReload {
		if err := registry.Reload(ctx); err != nil {
			logger.Warn(ctx, "Model reload fell back to the default model", "error", err)
		}
	}

	agents := make([]string, 0, len(types.AgentOutputKey))
	for name := range types.AgentOutputKey {
		agents = append(agents, name)
	}
	slices.Sort(agents)

	assigned := registry.All(ctx)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tMODEL\t")
	for _, name := range agents {
		model, ok := assigned[name]
		if !ok {
			model = registry.DefaultModel() + " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", name, model)
	}
	return tw.Flush()
}
