package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stock-analysis-agent/internal/types"
)

// AnalysisEntry is one line of the analysis log.
type AnalysisEntry struct {
	Timestamp   string   `json:"timestamp"`
	UserID      string   `json:"user_id"`
	SessionID   string   `json:"session_id"`
	Symbol      string   `json:"symbol"`
	Action      string   `json:"action"`
	Interrupted bool     `json:"interrupted"`
	DurationMS  int64    `json:"duration_ms"`
	Results     []string `json:"results"`
}

// AnalysisLog appends one JSON line per completed pipeline run.
type AnalysisLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewAnalysisLog(path string) *AnalysisLog {
	return &AnalysisLog{path: path, now: time.Now}
}

func (l *AnalysisLog) Path() string { return l.path }

// EntryFor summarizes a recommendation for the log.
func EntryFor(rec *types.Recommendation) AnalysisEntry {
	keys := make([]string, 0, len(rec.Results))
	for _, k := range types.OutputKeys {
		if _, ok := rec.Results[k]; ok {
			keys = append(keys, k)
		}
	}
	return AnalysisEntry{
		UserID:      rec.UserID,
		SessionID:   rec.SessionID,
		Symbol:      rec.StockSymbol,
		Action:      string(rec.Action),
		Interrupted: rec.Interrupted,
		DurationMS:  rec.Duration.Milliseconds(),
		Results:     keys,
	}
}

func (l *AnalysisLog) Append(e AnalysisEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp == "" {
		e.Timestamp = l.now().UTC().Format(time.RFC3339)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadAnalysisLog reads every entry back. A missing file yields no entries.
func ReadAnalysisLog(path string) ([]AnalysisEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []AnalysisEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e AnalysisEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return entries, fmt.Errorf("analysis log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
