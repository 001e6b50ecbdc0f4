package noop

import (
	"context"
	"iter"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/logger"
)

// Name is reported by Model.Name.
const Name = "noop"

// HoldReport is the canned answer for every analyst prompt.
const HoldReport = "HOLD\n\nNo language model is configured; this is a placeholder analysis."

// EmptyJSON is the answer for prompts that ask for a fenced JSON object.
const EmptyJSON = "```json\n{}\n```"

// Model is a fallback model.LLM used when no provider key is configured.
type Model struct{}

var _ model.LLM = (*Model)(nil)

// New returns a model that never calls tools and always answers HOLD.
func New() *Model {
	return &Model{}
}

func (m *Model) Name() string { return Name }

func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		text := HoldReport
		if wantsJSON(req) {
			text = EmptyJSON
		}
		logger.Debug(ctx, "Noop model called", "json", text == EmptyJSON)

		yield(&model.LLMResponse{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{genai.NewPartFromText(text)},
			},
			FinishReason: genai.FinishReasonStop,
			TurnComplete: true,
		}, nil)
	}
}

func wantsJSON(req *model.LLMRequest) bool {
	if req == nil || req.Config == nil || req.Config.SystemInstruction == nil {
		return false
	}
	for _, p := range req.Config.SystemInstruction.Parts {
		if p != nil && strings.Contains(p.Text, "```json") {
			return true
		}
	}
	return false
}
