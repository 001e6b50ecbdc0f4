package web

import (
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

type DCFArgs struct {
	Ticker string `json:"ticker" jsonschema:"Stock ticker symbol, e.g. AMZN"`
}

type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query, e.g. 'AAPL earnings guidance 2025'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results, default 8"`
}

// Tool exposes DCF as gurufocus_dcf_valuation. When low_predictability
// is true the fair value is unreliable and should not drive the valuation.
func (g *GuruFocus) Tool() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "gurufocus_dcf_valuation",
			Description: "GuruFocus DCF calculator: stock price, fair value, margin of safety and a low_predictability flag. Ignore the fair value when low_predictability is true.",
		},
		func(ctx tool.Context, args DCFArgs) (map[string]any, error) {
			if args.Ticker == "" {
				return map[string]any{"error": "ticker is required"}, nil
			}
			return g.DCF(ctx, args.Ticker), nil
		},
	)
}

// Tool exposes Search as web_search.
func (s *Searcher) Tool() (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{
			Name:        "web_search",
			Description: "Search the web for recent news, filings commentary and market discussion. Returns titles, urls and snippets.",
		},
		func(ctx tool.Context, args SearchArgs) (map[string]any, error) {
			return s.Search(ctx, args.Query, args.MaxResults), nil
		},
	)
}
