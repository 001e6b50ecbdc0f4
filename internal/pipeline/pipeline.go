// Package pipeline assembles the analysis agents into one tree and runs it:
// a project manager plans, five teams analyze in parallel and a hedge fund
// manager writes the final BUY, SELL or HOLD recommendation.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/storage"
	"stock-analysis-agent/internal/store"
	"stock-analysis-agent/internal/types"
)

// ErrEmptyQuery is returned when a request carries no query text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Options wires a Pipeline. Sessions and Log are optional.
type Options struct {
	Config   *store.Config
	Models   ModelProvider
	Tools    Toolbox
	Results  interfaces.ResultStore
	Log      *storage.AnalysisLog
	Sessions session.Service
}

// Request is one analysis run. Empty UserID and SessionID get defaults.
type Request struct {
	UserID    string
	SessionID string
	Query     string
}

type Pipeline struct {
	cfg      *store.Config
	models   ModelProvider
	tools    Toolbox
	sessions session.Service
	results  interfaces.ResultStore
	log      *storage.AnalysisLog
	now      func() time.Time

	mu     sync.RWMutex
	root   agent.Agent
	runner *runner.Runner
}

func New(ctx context.Context, opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if opts.Models == nil {
		return nil, errors.New("pipeline: model provider is required")
	}
	if opts.Results == nil {
		return nil, errors.New("pipeline: result store is required")
	}

	sessions := opts.Sessions
	if sessions == nil {
		var err error
		if sessions, err = NewSessionService(ctx, opts.Config); err != nil {
			return nil, err
		}
	}

	p := &Pipeline{
		cfg:      opts.Config,
		models:   opts.Models,
		tools:    opts.Tools,
		sessions: sessions,
		results:  opts.Results,
		log:      opts.Log,
		now:      time.Now,
	}
	if err := p.Rebuild(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Rebuild composes a fresh agent tree so new model assignments take effect.
// Runs already in flight finish on the old tree.
func (p *Pipeline) Rebuild(ctx context.Context) error {
	root, err := BuildTree(ctx, p.models, p.tools)
	if err != nil {
		return fmt.Errorf("build agent tree: %w", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        p.cfg.App.Name,
		Agent:          root,
		SessionService: p.sessions,
	})
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}

	p.mu.Lock()
	p.root, p.runner = root, r
	p.mu.Unlock()
	return nil
}

// Root returns the composed agent tree.
func (p *Pipeline) Root() agent.Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// Analyze runs the whole tree and returns the recommendation. A cancelled
// context returns the partial result with Interrupted set.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (*types.Recommendation, error) {
	return p.run(ctx, req, nil)
}

// Stream is Analyze with every event handed to fn as it arrives. An error
// from fn stops the run.
func (p *Pipeline) Stream(ctx context.Context, req Request, fn func(*session.Event) error) (*types.Recommendation, error) {
	return p.run(ctx, req, fn)
}

func (p *Pipeline) run(ctx context.Context, req Request, fn func(*session.Event) error) (*types.Recommendation, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if req.UserID == "" {
		req.UserID = p.cfg.App.UserID
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	rec := &types.Recommendation{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		StockSymbol: storage.ExtractStockSymbol(req.Query),
		Results:     map[string]string{},
		StartedAt:   p.now(),
	}

	timer := logger.StartOperation(ctx, "pipeline.Analyze",
		"user_id", rec.UserID,
		"session_id", rec.SessionID,
		"symbol", rec.StockSymbol,
	)
	ctx = timer.GetContext()

	if err := p.createSession(ctx, req, rec); err != nil {
		timer.EndWithError(err)
		return nil, err
	}

	logger.Info(ctx, "Starting analysis", "symbol", rec.StockSymbol, "session_id", rec.SessionID)

	p.mu.RLock()
	r := p.runner
	p.mu.RUnlock()

	msg := genai.NewContentFromText(req.Query, genai.RoleUser)
	stream := SafeEvents(ctx, r.Run(ctx, req.UserID, req.SessionID, msg, agent.RunConfig{}))

	// results are persisted even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	var fnErr error
	for ev := range stream.All() {
		p.record(persistCtx, rec, ev)
		if fn != nil {
			if fnErr = fn(ev); fnErr != nil {
				break
			}
		}
	}

	rec.Interrupted = stream.Interrupted()
	rec.Duration = p.now().Sub(rec.StartedAt)

	if err := errors.Join(stream.Err(), fnErr); err != nil {
		timer.EndWithError(err)
		return rec, fmt.Errorf("run pipeline: %w", err)
	}

	rec.Report = rec.Results[types.KeyFinalInvestment]
	rec.Action = types.ParseAction(rec.Report)

	if p.log != nil {
		if err := p.log.Append(storage.EntryFor(rec)); err != nil {
			logger.Warn(persistCtx, "Failed to append analysis log", "path", p.log.Path(), "error", err)
		}
	}

	logger.Recommendation(persistCtx, rec.StockSymbol, string(rec.Action), rec.SessionID,
		"user_id", rec.UserID,
		"interrupted", rec.Interrupted,
		"results", len(rec.Results),
		"duration_ms", rec.Duration.Milliseconds(),
	)
	timer.End("action", string(rec.Action), "interrupted", rec.Interrupted)
	return rec, nil
}

func (p *Pipeline) createSession(ctx context.Context, req Request, rec *types.Recommendation) error {
	_, err := p.sessions.Create(ctx, &session.CreateRequest{
		AppName:   p.cfg.App.Name,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		State: map[string]any{
			types.KeyUniqueID:          uuid.NewString(),
			types.KeyTimestamp:         rec.StartedAt.UTC().Format(time.RFC3339),
			types.KeyUserID:            req.UserID,
			types.KeyStockSymbol:       rec.StockSymbol,
			types.KeyUserQuery:         req.Query,
			types.KeySharedInstruction: p.cfg.Prompts.SharedInstruction,
			types.KeyPMInstructions:    map[string]any{},
		},
	})
	if err != nil {
		return fmt.Errorf("create session %s: %w", req.SessionID, err)
	}
	return nil
}

// record persists every agent output carried by the event's state delta.
func (p *Pipeline) record(ctx context.Context, rec *types.Recommendation, ev *session.Event) {
	for key, value := range ev.Actions.StateDelta {
		if !types.IsOutputKey(key) {
			continue
		}
		content := stateString(value)
		rec.Results[key] = content
		logger.AgentResult(ctx, ev.Author, key, len(content), "session_id", rec.SessionID)

		_, err := p.results.Save(ctx, types.AgentResult{
			AgentName:   key,
			Content:     content,
			UserID:      rec.UserID,
			SessionID:   rec.SessionID,
			StockSymbol: rec.StockSymbol,
			Metadata: map[string]any{
				"saved_via":     "pipeline",
				"invocation_id": ev.InvocationID,
				"author":        ev.Author,
			},
		})
		if err != nil {
			logger.Warn(ctx, "Agent result not persisted", "output_key", key, "error", err)
		}
	}
}

func stateString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
