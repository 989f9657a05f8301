// Package google implements ai.Provider for the Gemini API over plain
// HTTP. Replies are requested from streamGenerateContent and the SSE chunks
// are folded into a single AssistantMessage.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bitop-dev/shellagent/pkg/ai"
	"github.com/bitop-dev/shellagent/pkg/ai/sse"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Provider is the Gemini chat provider.
type Provider struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Provider. An empty baseURL selects the public endpoint; a
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

func (p *Provider) Name() string { return "google" }

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type wirePart struct {
	Text             string        `json:"text,omitempty"`
	Thought          bool          `json:"thought,omitempty"`
	FunctionCall     *wireFuncCall `json:"functionCall,omitempty"`
	FunctionResponse *wireFuncResp `json:"functionResponse,omitempty"`
}

type wireFuncCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type wireFuncResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type wireContent struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

type wireFuncDecl struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	ParametersJsonSchema json.RawMessage `json:"parametersJsonSchema,omitempty"`
}

type wireTool struct {
	FunctionDeclarations []wireFuncDecl `json:"functionDeclarations"`
}

type wireGenConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type wireSystemInstruction struct {
	Parts []wirePart `json:"parts"`
}

type wireRequest struct {
	SystemInstruction *wireSystemInstruction `json:"systemInstruction,omitempty"`
	Contents          []wireContent          `json:"contents"`
	Tools             []wireTool             `json:"tools,omitempty"`
	GenerationConfig  *wireGenConfig         `json:"generationConfig,omitempty"`
}

type wireChunk struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		ThoughtsTokenCount   int `json:"thoughtsTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *wireError `json:"error,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ---------------------------------------------------------------------------
// Complete
// ---------------------------------------------------------------------------

func (p *Provider) Complete(ctx context.Context, model string, llmCtx ai.Context, opts ai.Options) (*ai.AssistantMessage, error) {
	if opts.APIKey == "" {
		return nil, errors.New("google: api key is not set")
	}
	req, err := buildRequest(llmCtx, opts)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("google: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", p.BaseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", opts.APIKey)

	resp, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
		return nil, ai.HTTPError("google", resp.StatusCode, b)
	}

	return readReply(resp.Body, model)
}

// readReply folds the SSE chunk stream into one message. Consecutive text
// parts are merged into a single text block; thought parts are dropped.
func readReply(r io.Reader, model string) (*ai.AssistantMessage, error) {
	msg := &ai.AssistantMessage{
		Role:      ai.RoleAssistant,
		Model:     model,
		Provider:  "google",
		Timestamp: time.Now().UnixMilli(),
	}

	var text strings.Builder
	flushText := func() {
		if text.Len() > 0 {
			msg.Content = append(msg.Content, ai.TextContent{Type: "text", Text: text.String()})
			text.Reset()
		}
	}

	calls := 0
	reader := sse.NewReader(r)
	for {
		ev, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("google: sse read: %w", err)
		}
		if ev.Data == "" || ev.Data == "[DONE]" {
			continue
		}

		var chunk wireChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return nil, fmt.Errorf("google: decode chunk: %w", err)
		}
		if chunk.Error != nil {
			return nil, fmt.Errorf("google: %s (%d %s)", chunk.Error.Message, chunk.Error.Code, chunk.Error.Status)
		}

		if u := chunk.UsageMetadata; u.TotalTokenCount > 0 {
			msg.Usage = ai.Usage{
				Input:       u.PromptTokenCount,
				Output:      u.CandidatesTokenCount + u.ThoughtsTokenCount,
				TotalTokens: u.TotalTokenCount,
			}
		}
		if len(chunk.Candidates) == 0 {
			continue
		}

		cand := chunk.Candidates[0]
		if cand.FinishReason != "" {
			msg.StopReason = mapStopReason(cand.FinishReason)
		}
		for _, part := range cand.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				flushText()
				calls++
				msg.Content = append(msg.Content, ai.ToolCall{
					Type:      "tool_call",
					ID:        fmt.Sprintf("%s_%d_%s", part.FunctionCall.Name, calls, uuid.New().String()[:8]),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			case part.Thought:
				// reasoning summaries are not part of the reply
			case part.Text != "":
				text.WriteString(part.Text)
			}
		}
	}
	flushText()

	if msg.StopReason == "" {
		msg.StopReason = ai.StopReasonStop
	}
	if calls > 0 {
		msg.StopReason = ai.StopReasonTool
	}
	return msg, nil
}

// ---------------------------------------------------------------------------
// Request building
// ---------------------------------------------------------------------------

func buildRequest(llmCtx ai.Context, opts ai.Options) (wireRequest, error) {
	var req wireRequest

	if llmCtx.SystemPrompt != "" {
		req.SystemInstruction = &wireSystemInstruction{Parts: []wirePart{{Text: llmCtx.SystemPrompt}}}
	}
	if opts.Temperature != nil || opts.MaxTokens > 0 {
		req.GenerationConfig = &wireGenConfig{Temperature: opts.Temperature, MaxOutputTokens: opts.MaxTokens}
	}

	// Gemini expects all responses to one model turn's function calls in a
	// single content, one functionResponse part per call.
	prevToolResult := false
	for _, m := range llmCtx.Messages {
		wc, err := convertMessage(m)
		if err != nil {
			return wireRequest{}, err
		}
		if wc == nil {
			continue
		}
		_, isToolResult := m.(ai.ToolResultMessage)
		if isToolResult && prevToolResult {
			last := &req.Contents[len(req.Contents)-1]
			last.Parts = append(last.Parts, wc.Parts...)
		} else {
			req.Contents = append(req.Contents, *wc)
		}
		prevToolResult = isToolResult
	}

	if len(llmCtx.Tools) > 0 {
		decls := make([]wireFuncDecl, 0, len(llmCtx.Tools))
		for _, t := range llmCtx.Tools {
			decls = append(decls, wireFuncDecl{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: t.Parameters,
			})
		}
		req.Tools = []wireTool{{FunctionDeclarations: decls}}
	}
	return req, nil
}

// convertMessage maps one conversation entry to Gemini content. An assistant
// turn with neither text nor calls has no wire form and yields nil.
func convertMessage(m ai.Message) (*wireContent, error) {
	switch msg := m.(type) {
	case ai.UserMessage:
		var parts []wirePart
		for _, c := range msg.Content {
			if tc, ok := c.(ai.TextContent); ok {
				parts = append(parts, wirePart{Text: tc.Text})
			}
		}
		if len(parts) == 0 {
			parts = []wirePart{{Text: ""}}
		}
		return &wireContent{Role: "user", Parts: parts}, nil

	case ai.AssistantMessage:
		var parts []wirePart
		for _, c := range msg.Content {
			switch blk := c.(type) {
			case ai.TextContent:
				if strings.TrimSpace(blk.Text) != "" {
					parts = append(parts, wirePart{Text: blk.Text})
				}
			case ai.ToolCall:
				args := blk.Arguments
				if args == nil {
					args = map[string]any{}
				}
				parts = append(parts, wirePart{FunctionCall: &wireFuncCall{Name: blk.Name, Args: args}})
			}
		}
		if len(parts) == 0 {
			return nil, nil
		}
		return &wireContent{Role: "model", Parts: parts}, nil

	case ai.ToolResultMessage:
		key := "output"
		if msg.IsError {
			key = "error"
		}
		part := wirePart{FunctionResponse: &wireFuncResp{
			Name:     msg.ToolName,
			Response: map[string]any{key: msg.Text()},
		}}
		return &wireContent{Role: "user", Parts: []wirePart{part}}, nil
	}

	return nil, fmt.Errorf("google: unsupported message type: %T", m)
}

func mapStopReason(r string) ai.StopReason {
	switch r {
	case "MAX_TOKENS":
		return ai.StopReasonLength
	default:
		return ai.StopReasonStop
	}
}
