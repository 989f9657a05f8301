// Package ai defines the chat types exchanged with an LLM: role-tagged
// messages, tool descriptors, tool calls, and the provider interface.
package ai

import (
	"encoding/json"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Content blocks
// ---------------------------------------------------------------------------

type TextContent struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}

// ToolCall is a request, emitted by the model, to invoke a named tool.
type ToolCall struct {
	Type      string         `json:"type"`      // "tool_call"
	ID        string         `json:"id"`        // unique call ID
	Name      string         `json:"name"`      // tool name as sent by the model
	Arguments map[string]any `json:"arguments"` // parsed JSON args
}

// ContentBlock is implemented by TextContent and ToolCall.
type ContentBlock interface {
	contentBlock()
}

func (TextContent) contentBlock() {}
func (ToolCall) contentBlock()    {}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

type StopReason string

const (
	StopReasonStop   StopReason = "stop"
	StopReasonLength StopReason = "length"
	StopReasonTool   StopReason = "tool_use"
)

// Message is the union of UserMessage, AssistantMessage and ToolResultMessage.
type Message interface {
	GetRole() Role
}

// UserMessage is a human turn.
type UserMessage struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Timestamp int64          `json:"timestamp"` // unix ms
}

func (m UserMessage) GetRole() Role { return m.Role }

// AssistantMessage is a model reply. Content holds text and tool calls in
// the order the model produced them.
type AssistantMessage struct {
	Role       Role           `json:"role"`
	Content    []ContentBlock `json:"content"`
	Model      string         `json:"model"`
	Provider   string         `json:"provider"`
	Usage      Usage          `json:"usage"`
	StopReason StopReason     `json:"stop_reason"`
	Timestamp  int64          `json:"timestamp"`
}

func (m AssistantMessage) GetRole() Role { return m.Role }

// Text returns the concatenation of all text blocks.
func (m AssistantMessage) Text() string {
	var sb strings.Builder
	for _, c := range m.Content {
		if tc, ok := c.(TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool calls in the order they were emitted.
func (m AssistantMessage) ToolCalls() []ToolCall {
	var out []ToolCall
	for _, c := range m.Content {
		if tc, ok := c.(ToolCall); ok {
			out = append(out, tc)
		}
	}
	return out
}

// ToolResultMessage carries the result of one tool call back to the model.
type ToolResultMessage struct {
	Role       Role           `json:"role"`
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	Content    []ContentBlock `json:"content"`
	Details    any            `json:"details,omitempty"` // not sent to the model
	IsError    bool           `json:"is_error"`
	Timestamp  int64          `json:"timestamp"`
}

func (m ToolResultMessage) GetRole() Role { return m.Role }

// Text returns the concatenation of all text blocks.
func (m ToolResultMessage) Text() string {
	var sb strings.Builder
	for _, c := range m.Content {
		if tc, ok := c.(TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// NewUserMessage wraps plain text in a UserMessage stamped with the current time.
func NewUserMessage(text string) UserMessage {
	return UserMessage{
		Role:      RoleUser,
		Content:   []ContentBlock{TextContent{Type: "text", Text: text}},
		Timestamp: time.Now().UnixMilli(),
	}
}

// ---------------------------------------------------------------------------
// Usage
// ---------------------------------------------------------------------------

type Usage struct {
	Input       int `json:"input"`
	Output      int `json:"output"`
	TotalTokens int `json:"total_tokens"`
}

// ---------------------------------------------------------------------------
// Tool definition (schema handed to the model)
// ---------------------------------------------------------------------------

// ToolDefinition describes a callable tool to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema object
}

// ---------------------------------------------------------------------------
// Request context
// ---------------------------------------------------------------------------

// Context holds the full conversation for one chat call.
type Context struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition // nil = no tools offered this round
}

// Options are per-call generation settings.
type Options struct {
	Temperature *float64
	MaxTokens   int
	APIKey      string
}
