// Package openai adapts OpenAI-compatible chat completion APIs (OpenRouter and
// friends) to the agent framework's model.LLM interface.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"stock-analysis-agent/internal/api"
)

const (
	defaultMaxTokens = 8192
	providerPrefix   = "openrouter/"
)

// Config for creating a chat completions model.
type Config struct {
	Model   string // e.g. "openrouter/qwen/qwen3-max"
	BaseURL string // e.g. "https://openrouter.ai/api/v1"
	APIKey  string
	Timeout time.Duration
	Retry   *api.RetryConfig
}

// Model implements model.LLM over /chat/completions.
type Model struct {
	name   string
	client *api.Client
	retry  *api.RetryConfig
}

var _ model.LLM = (*Model)(nil)

func New(cfg Config) *Model {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	retry := cfg.Retry
	if retry == nil {
		retry = &api.RetryConfig{
			MaxAttempts: 3,
			InitialWait: 2 * time.Second,
			MaxWait:     30 * time.Second,
			Retryable:   api.IsTransient,
		}
	}
	return &Model{
		name: cfg.Model,
		client: api.NewClient(
			api.WithBaseURL(cfg.BaseURL),
			api.WithTimeout(timeout),
			api.WithHeader("Authorization", "Bearer "+cfg.APIKey),
			api.WithHeader("X-Title", "stock-analysis-agent"),
		),
		retry: retry,
	}
}

func (m *Model) Name() string { return m.name }

// GenerateContent issues one non-streaming completion; stream is ignored.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

// --- Chat completions wire types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	chatReq := m.convertRequest(req)

	httpReq := api.NewRequest(http.MethodPost, "chat/completions").
		WithContext(ctx).
		WithBody(chatReq)
	resp, err := m.client.DoWithRetry(httpReq, m.retry)
	if err != nil {
		return nil, fmt.Errorf("chat completion %s: %w", m.name, err)
	}

	var chatResp chatResponse
	if err := resp.ParseJSON(&chatResp); err != nil {
		return nil, err
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("chat completion %s: %s", m.name, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return convertResponse(&chatResp)
}

func apiModelName(name string) string {
	return strings.TrimPrefix(name, providerPrefix)
}

func strPtr(s string) *string { return &s }

func (m *Model) convertRequest(req *model.LLMRequest) *chatRequest {
	out := &chatRequest{
		Model:     apiModelName(m.name),
		MaxTokens: defaultMaxTokens,
	}

	if cfg := req.Config; cfg != nil {
		if cfg.SystemInstruction != nil {
			var sb strings.Builder
			for _, p := range cfg.SystemInstruction.Parts {
				sb.WriteString(p.Text)
			}
			if sb.Len() > 0 {
				out.Messages = append(out.Messages, chatMessage{Role: "system", Content: strPtr(sb.String())})
			}
		}
		if cfg.MaxOutputTokens > 0 {
			out.MaxTokens = int(cfg.MaxOutputTokens)
		}
		out.Temperature = cfg.Temperature

		for _, t := range cfg.Tools {
			if t == nil {
				continue
			}
			for _, fd := range t.FunctionDeclarations {
				spec := functionSpec{Name: fd.Name, Description: fd.Description}
				switch {
				case fd.ParametersJsonSchema != nil:
					spec.Parameters = fd.ParametersJsonSchema
				case fd.Parameters != nil:
					spec.Parameters = fd.Parameters
				default:
					spec.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
				}
				out.Tools = append(out.Tools, chatTool{Type: "function", Function: spec})
			}
		}
	}

	for _, content := range req.Contents {
		out.Messages = append(out.Messages, convertContent(content)...)
	}
	return out
}

// convertContent maps one genai content to chat messages. Function responses
// become separate "tool" messages.
func convertContent(content *genai.Content) []chatMessage {
	if content == nil || len(content.Parts) == 0 {
		return nil
	}

	role := "user"
	if content.Role == genai.RoleModel {
		role = "assistant"
	}

	var (
		text      strings.Builder
		calls     []toolCall
		responses []chatMessage
	)
	for _, part := range content.Parts {
		if part.Thought {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			args, _ := json.Marshal(fc.Args)
			calls = append(calls, toolCall{
				ID:       fc.ID,
				Type:     "function",
				Function: functionCall{Name: fc.Name, Arguments: string(args)},
			})
		}
		if fr := part.FunctionResponse; fr != nil {
			body, _ := json.Marshal(fr.Response)
			responses = append(responses, chatMessage{
				Role:       "tool",
				ToolCallID: fr.ID,
				Content:    strPtr(string(body)),
			})
		}
	}

	var out []chatMessage
	if text.Len() > 0 || len(calls) > 0 {
		msg := chatMessage{Role: role, ToolCalls: calls}
		if text.Len() > 0 {
			msg.Content = strPtr(text.String())
		}
		out = append(out, msg)
	}
	return append(out, responses...)
}

func convertResponse(resp *chatResponse) (*model.LLMResponse, error) {
	choice := resp.Choices[0]
	var parts []*genai.Part

	if choice.Message.Content != nil && *choice.Message.Content != "" {
		parts = append(parts, genai.NewPartFromText(*choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("tool call %s arguments: %w", tc.Function.Name, err)
			}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Args: args},
		})
	}

	llmResp := &model.LLMResponse{
		Content:      &genai.Content{Role: genai.RoleModel, Parts: parts},
		TurnComplete: true,
	}
	switch choice.FinishReason {
	case "stop":
		llmResp.FinishReason = genai.FinishReasonStop
	case "tool_calls":
		llmResp.FinishReason = genai.FinishReasonStop
		llmResp.TurnComplete = false
	case "length":
		llmResp.FinishReason = genai.FinishReasonMaxTokens
	}

	if u := resp.Usage; u != nil {
		llmResp.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(u.PromptTokens),
			CandidatesTokenCount: int32(u.CompletionTokens),
			TotalTokenCount:      int32(u.TotalTokens),
		}
	}
	return llmResp, nil
}
