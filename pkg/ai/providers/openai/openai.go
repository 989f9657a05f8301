// Package openai implements ai.Provider for the OpenAI chat-completions API
// and any endpoint compatible with it (Groq, OpenRouter, Ollama, …) via
// BaseURL. Requests are non-streaming.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bitop-dev/shellagent/pkg/ai"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Provider is the OpenAI chat-completions provider.
type Provider struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Provider. Pass "" for baseURL to use the OpenAI endpoint; a
// zero timeout means no client-side timeout.
func New(baseURL string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (p *Provider) Name() string { return "openai" }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type wireMessage struct {
	Role       string         `json:"role"`
	Content    *string        `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"` // "function"
	Function wireToolFunc `json:"function"`
}

type wireToolFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON string
	} `json:"function"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ---------------------------------------------------------------------------
// Complete
// ---------------------------------------------------------------------------

func (p *Provider) Complete(ctx context.Context, model string, llmCtx ai.Context, opts ai.Options) (*ai.AssistantMessage, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: api key is not set")
	}
	req, err := buildRequest(model, llmCtx, opts)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+opts.APIKey)

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
		return nil, ai.HTTPError("openai", resp.StatusCode, b)
	}

	var parsed wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	return convertReply(parsed, model)
}

func convertReply(r wireResponse, model string) (*ai.AssistantMessage, error) {
	if len(r.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	choice := r.Choices[0]

	msg := &ai.AssistantMessage{
		Role:       ai.RoleAssistant,
		Model:      model,
		Provider:   "openai",
		StopReason: mapStopReason(choice.FinishReason),
		Usage: ai.Usage{
			Input:       r.Usage.PromptTokens,
			Output:      r.Usage.CompletionTokens,
			TotalTokens: r.Usage.TotalTokens,
		},
		Timestamp: time.Now().UnixMilli(),
	}
	if c := choice.Message.Content; c != nil && *c != "" {
		msg.Content = append(msg.Content, ai.TextContent{Type: "text", Text: *c})
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if s := strings.TrimSpace(tc.Function.Arguments); s != "" {
			if err := json.Unmarshal([]byte(s), &args); err != nil {
				return nil, fmt.Errorf("openai: tool call %s: decode arguments: %w", tc.Function.Name, err)
			}
		}
		msg.Content = append(msg.Content, ai.ToolCall{
			Type:      "tool_call",
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	if len(choice.Message.ToolCalls) > 0 {
		msg.StopReason = ai.StopReasonTool
	}
	return msg, nil
}

// ---------------------------------------------------------------------------
// Request building
// ---------------------------------------------------------------------------

func buildRequest(model string, llmCtx ai.Context, opts ai.Options) (wireRequest, error) {
	req := wireRequest{
		Model:       model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	if llmCtx.SystemPrompt != "" {
		req.Messages = append(req.Messages, wireMessage{Role: "system", Content: strPtr(llmCtx.SystemPrompt)})
	}
	for _, m := range llmCtx.Messages {
		wm, ok, err := convertMessage(m)
		if err != nil {
			return wireRequest{}, err
		}
		if ok {
			req.Messages = append(req.Messages, wm)
		}
	}
	for _, t := range llmCtx.Tools {
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireToolFunc{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return req, nil
}

// convertMessage maps one conversation entry to the wire format. ok is false
// for an assistant turn with neither text nor tool calls, which the API
// rejects.
func convertMessage(m ai.Message) (wm wireMessage, ok bool, err error) {
	switch msg := m.(type) {
	case ai.UserMessage:
		var text strings.Builder
		for _, c := range msg.Content {
			if tc, ok := c.(ai.TextContent); ok {
				text.WriteString(tc.Text)
			}
		}
		return wireMessage{Role: "user", Content: strPtr(text.String())}, true, nil

	case ai.AssistantMessage:
		wm := wireMessage{Role: "assistant"}
		if t := msg.Text(); t != "" {
			wm.Content = strPtr(t)
		}
		for _, tc := range msg.ToolCalls() {
			args := tc.Arguments
			if args == nil {
				args = map[string]any{}
			}
			argsJSON, err := json.Marshal(args)
			if err != nil {
				return wireMessage{}, false, fmt.Errorf("openai: encode tool call arguments: %w", err)
			}
			var w wireToolCall
			w.ID = tc.ID
			w.Type = "function"
			w.Function.Name = tc.Name
			w.Function.Arguments = string(argsJSON)
			wm.ToolCalls = append(wm.ToolCalls, w)
		}
		if wm.Content == nil && len(wm.ToolCalls) == 0 {
			return wireMessage{}, false, nil
		}
		return wm, true, nil

	case ai.ToolResultMessage:
		return wireMessage{
			Role:       "tool",
			ToolCallID: msg.ToolCallID,
			Content:    strPtr(msg.Text()),
		}, true, nil
	}

	return wireMessage{}, false, fmt.Errorf("openai: unsupported message type: %T", m)
}

func strPtr(s string) *string { return &s }

func mapStopReason(s string) ai.StopReason {
	switch s {
	case "length":
		return ai.StopReasonLength
	case "tool_calls":
		return ai.StopReasonTool
	default:
		return ai.StopReasonStop
	}
}
