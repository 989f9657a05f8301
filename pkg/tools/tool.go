// Package tools defines the Tool interface, the name-keyed dispatch table the
// orchestrator resolves model tool calls against, and argument validation.
package tools

import (
	"context"
	"encoding/json"

	"github.com/bitop-dev/shellagent/pkg/ai"
)

// Result is the output of a tool execution.
type Result struct {
	// Content is sent back to the model.
	Content []ai.ContentBlock
	// Details is structured data for callers and logs; never sent to the model.
	Details any
}

// Tool is implemented by every locally invocable capability.
type Tool interface {
	// Definition returns the descriptor handed to the model.
	Definition() ai.ToolDefinition
	// Execute runs the tool with already-validated params.
	Execute(ctx context.Context, callID string, params map[string]any) (Result, error)
}

func TextResult(text string) Result {
	return Result{Content: []ai.ContentBlock{ai.TextContent{Type: "text", Text: text}}}
}

// ---------------------------------------------------------------------------
// SimpleSchema builds flat JSON Schema objects inline.
// ---------------------------------------------------------------------------

type SimpleSchema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// MustSchema renders s as a JSON Schema object. It panics on marshal failure,
// which only happens for programmer error.
func MustSchema(s SimpleSchema) json.RawMessage {
	props := s.Properties
	if props == nil {
		props = map[string]Property{}
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		doc["required"] = s.Required
	}
	b, err := json.Marshal(doc)
	if err != nil {
		panic("tools.MustSchema: " + err.Error())
	}
	return b
}
