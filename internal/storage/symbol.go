package storage

import (
	"regexp"
	"strings"
)

// UnknownSymbol is used when no ticker or company can be found in a query.
const UnknownSymbol = "unknown"

// Tried in order; the first usable capture wins. Covers "$AAPL", Korean
// phrasing such as "AAPL 주식" or "테슬라를 분석", and English phrasing such as
// "Tesla stock" or "analyze NVDA".
var symbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$([A-Za-z]{1,5})\b`),
	regexp.MustCompile(`(?i)\b([a-z]{1,5})\s+(?:종목|주식|주가|주)`),
	regexp.MustCompile(`(?i)\b([a-z]{1,5})\s*(?:을|를)\s*분석`),
	regexp.MustCompile(`(?i)\b([a-z]{1,5})\s*(?:에\s*대해|에\s*대한)`),
	regexp.MustCompile(`(?i)([\p{Hangul}a-z]+)\s+(?:종목|주식|주가|주)`),
	regexp.MustCompile(`(?i)([\p{Hangul}a-z]+)\s*(?:을|를)\s*분석`),
	regexp.MustCompile(`(?i)([\p{Hangul}a-z]+)\s*(?:에\s*대해|에\s*대한)`),
	regexp.MustCompile(`(?i)\b([a-z]{1,20})(?:'s)?\s+(?:stock|shares|share price)\b`),
	regexp.MustCompile(`(?i)\b(?:analy[sz]e|research|evaluate|review|assess)\s+(?:the\s+)?([a-z]{1,20})\b`),
}

var hangulRe = regexp.MustCompile(`\p{Hangul}`)

var symbolStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "my": true,
	"your": true, "its": true, "their": true, "some": true, "stock": true,
	"stocks": true, "share": true, "shares": true, "company": true, "market": true,
}

// ExtractStockSymbol finds a ticker or company name in a free-form query and
// returns it lower-cased, or "unknown".
func ExtractStockSymbol(query string) string {
	for _, re := range symbolPatterns {
		for _, m := range re.FindAllStringSubmatch(query, -1) {
			symbol := strings.ToLower(strings.TrimSpace(hangulRe.ReplaceAllString(m[1], "")))
			if symbol == "" || symbolStopwords[symbol] {
				continue
			}
			return symbol
		}
	}
	return UnknownSymbol
}
