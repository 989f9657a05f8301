package ai

import "context"

// Provider is a chat-completion client with tool calling.
//
// Complete sends the conversation and the offered tools and returns the
// model's full reply. Implementations must be safe for concurrent use; the
// HTTP server shares one Provider across requests.
type Provider interface {
	// Name returns the provider identifier, e.g. "google", "openai".
	Name() string

	Complete(ctx context.Context, model string, llmCtx Context, opts Options) (*AssistantMessage, error)
}
