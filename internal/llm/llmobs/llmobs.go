package llmobs

import (
	"context"
	"iter"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/adk/model"

	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/trace"
)

// observableModel wraps a model.LLM with observability (logging & tracing)
type observableModel struct {
	llm model.LLM
}

// Compile-time interface check
var _ model.LLM = (*observableModel)(nil)

// Wrap wraps a model with observability middleware
func Wrap(llm model.LLM) model.LLM {
	return &observableModel{
		llm: llm,
	}
}

func (om *observableModel) Name() string {
	return om.llm.Name()
}

// GenerateContent forwards to the wrapped model inside a span
func (om *observableModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		ctx, span := trace.StartSpan(ctx, "llm.GenerateContent")
		defer span.End()

		name := om.llm.Name()
		toolCount := 0
		if req != nil && req.Config != nil {
			for _, t := range req.Config.Tools {
				if t != nil {
					toolCount += len(t.FunctionDeclarations)
				}
			}
		}
		contents := 0
		if req != nil {
			contents = len(req.Contents)
		}
		span.SetAttributes(
			attribute.String("llm.model", name),
			attribute.Int("llm.contents", contents),
			attribute.Int("llm.tools", toolCount),
		)

		// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
		logger.DebugSkip(ctx, 1, "Requesting model response",
			"model", name,
			"contents", contents,
			"tools", toolCount,
		)

		for resp, err := range om.llm.GenerateContent(ctx, req, stream) {
			if err != nil {
				logger.ErrorWithErrSkip(ctx, 1, "Model request failed", err, "model", name)
				yield(nil, err)
				return
			}

			calls, chars := summarize(resp)
			fields := []any{"model", name, "function_calls", calls, "chars", chars}
			if u := resp.UsageMetadata; u != nil {
				fields = append(fields,
					"prompt_tokens", u.PromptTokenCount,
					"output_tokens", u.CandidatesTokenCount,
				)
				span.SetAttributes(
					attribute.Int("llm.prompt_tokens", int(u.PromptTokenCount)),
					attribute.Int("llm.output_tokens", int(u.CandidatesTokenCount)),
				)
			}
			logger.InfoSkip(ctx, 1, "Model response received", fields...)

			if !yield(resp, nil) {
				return
			}
		}
	}
}

func summarize(resp *model.LLMResponse) (calls, chars int) {
	if resp == nil || resp.Content == nil {
		return 0, 0
	}
	for _, p := range resp.Content.Parts {
		if p == nil {
			continue
		}
		if p.FunctionCall != nil {
			calls++
		}
		chars += len(p.Text)
	}
	return calls, chars
}
