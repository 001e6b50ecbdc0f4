package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"stock-analysis-agent/internal/api"
	"stock-analysis-agent/internal/logger"
)

// SearchResult is one organic hit from the search page.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher scrapes the DuckDuckGo HTML endpoint.
type Searcher struct {
	baseURL    string
	timeout    time.Duration
	maxResults int
}

func NewSearcher(baseURL string, timeout time.Duration, maxResults int) *Searcher {
	if maxResults <= 0 {
		maxResults = 8
	}
	return &Searcher{
		baseURL:    baseURL,
		timeout:    timeout,
		maxResults: maxResults,
	}
}

// Search returns {query, results:[{title,url,snippet}]} or {"error": ...}.
func (s *Searcher) Search(ctx context.Context, query string, max int) map[string]any {
	query = strings.TrimSpace(query)
	if query == "" {
		return map[string]any{"error": "query is required"}
	}
	if max <= 0 || max > s.maxResults {
		max = s.maxResults
	}

	results, err := s.scrape(ctx, query, max)
	if err != nil {
		logger.Warn(ctx, "Web search failed", "query", query, "error", err)
		return map[string]any{"error": fmt.Sprintf("search failed: %v", err)}
	}

	logger.Debug(ctx, "Web search completed", "query", query, "results", len(results))
	return map[string]any{
		"query":   query,
		"results": results,
	}
}

func (s *Searcher) scrape(ctx context.Context, query string, max int) ([]SearchResult, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search url: %w", err)
	}

	results := []SearchResult{}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	c.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= max {
			return
		}
		if strings.Contains(e.Attr("class"), "result--ad") {
			return
		}

		title := strings.TrimSpace(e.ChildText("a.result__a"))
		href := e.ChildAttr("a.result__a", "href")
		if title == "" || href == "" {
			return
		}

		results = append(results, SearchResult{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(e.ChildText(".result__snippet")),
		})
	})

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
	})

	q := base.Query()
	q.Set("q", query)
	base.RawQuery = q.Encode()

	if err := c.Visit(base.String()); err != nil {
		return nil, err
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, scrapeErr
	}
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> links.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
