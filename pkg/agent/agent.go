// Package agent answers a user message with at most one round of tool use:
// ask the model, run any tools it requests, then ask once more for the final
// reply.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitop-dev/shellagent/pkg/ai"
	"github.com/bitop-dev/shellagent/pkg/tools"
)

// Agent is stateless between calls; each Respond owns its conversation.
// It is safe for concurrent use if its Provider and tools are.
type Agent struct {
	systemPrompt string
	model        string
	provider     ai.Provider
	tools        *tools.Registry
	callOpts     ai.Options
	log          zerolog.Logger
}

// Options configures a new Agent.
type Options struct {
	SystemPrompt string
	Model        string
	Provider     ai.Provider
	Tools        *tools.Registry // nil → no tools offered
	CallOptions  ai.Options      // passed to every chat call
	Logger       *zerolog.Logger // nil → discard
}

// New creates an Agent.
func New(opts Options) *Agent {
	reg := opts.Tools
	if reg == nil {
		reg = tools.NewRegistry()
	}
	a := &Agent{
		systemPrompt: opts.SystemPrompt,
		model:        opts.Model,
		provider:     opts.Provider,
		tools:        reg,
		callOpts:     opts.CallOptions,
		log:          zerolog.Nop(),
	}
	if opts.Logger != nil {
		a.log = *opts.Logger
	}
	return a
}

// Respond runs the two-round exchange for message and returns the model's
// final text.
//
// The first call offers every registered tool. The reply is appended to the
// conversation even when it carries no text. Each requested tool is resolved
// by name, ignoring case; a name that is not registered fails the whole call
// with an error wrapping tools.ErrUnknownTool. The second call offers no
// tools, so tool calls in the final reply are ignored.
func (a *Agent) Respond(ctx context.Context, message string) (string, error) {
	if a.provider == nil {
		return "", errors.New("agent: no provider configured")
	}

	conv := []ai.Message{ai.NewUserMessage(message)}

	first, err := a.complete(ctx, conv, a.tools.Definitions())
	if err != nil {
		return "", fmt.Errorf("agent: first completion: %w", err)
	}
	conv = append(conv, *first)

	calls := first.ToolCalls()
	for _, call := range calls {
		res, err := a.runTool(ctx, call)
		if err != nil {
			return "", err
		}
		conv = append(conv, res)
	}

	final, err := a.complete(ctx, conv, nil)
	if err != nil {
		if errors.Is(err, ai.ErrContextOverflow) && len(calls) > 0 {
			return "", fmt.Errorf("agent: final completion: command output too large: %w", err)
		}
		return "", fmt.Errorf("agent: final completion: %w", err)
	}

	a.log.Info().
		Int("tool_calls", len(calls)).
		Int("messages", len(conv)).
		Int("tokens", first.Usage.TotalTokens+final.Usage.TotalTokens).
		Msg("response ready")
	return final.Text(), nil
}

func (a *Agent) complete(ctx context.Context, conv []ai.Message, defs []ai.ToolDefinition) (*ai.AssistantMessage, error) {
	llmCtx := ai.Context{
		SystemPrompt: a.systemPrompt,
		Messages:     append([]ai.Message(nil), conv...),
		Tools:        defs,
	}
	start := time.Now()
	msg, err := a.provider.Complete(ctx, a.model, llmCtx, a.callOpts)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("%s returned no message", a.provider.Name())
	}
	a.log.Debug().
		Str("provider", a.provider.Name()).
		Str("model", a.model).
		Int("tools_offered", len(defs)).
		Str("stop_reason", string(msg.StopReason)).
		Dur("took", time.Since(start)).
		Msg("chat completion")
	return msg, nil
}

func (a *Agent) runTool(ctx context.Context, call ai.ToolCall) (ai.ToolResultMessage, error) {
	tool, err := a.tools.Lookup(call.Name)
	if err != nil {
		return ai.ToolResultMessage{}, fmt.Errorf("agent: tool call %s: %w", call.ID, err)
	}
	def := tool.Definition()

	args, err := tools.ValidateAndCoerce(def, call.Arguments)
	if err != nil {
		return ai.ToolResultMessage{}, fmt.Errorf("agent: tool call %s: %w", call.ID, err)
	}

	a.log.Info().Str("tool", def.Name).Str("call_id", call.ID).Interface("args", args).Msg("running tool")
	res, err := tool.Execute(ctx, call.ID, args)
	if err != nil {
		return ai.ToolResultMessage{}, fmt.Errorf("agent: tool %s: %w", def.Name, err)
	}

	return ai.ToolResultMessage{
		Role:       ai.RoleToolResult,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    res.Content,
		Details:    res.Details,
		Timestamp:  time.Now().UnixMilli(),
	}, nil
}
