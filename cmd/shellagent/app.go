package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bitop-dev/shellagent/pkg/agent"
	"github.com/bitop-dev/shellagent/pkg/ai"
	"github.com/bitop-dev/shellagent/pkg/ai/providers/google"
	"github.com/bitop-dev/shellagent/pkg/ai/providers/openai"
	"github.com/bitop-dev/shellagent/pkg/tools"
	"github.com/bitop-dev/shellagent/pkg/tools/builtin"
)

// app is everything a command needs, built once from configuration.
type app struct {
	cfg   *agent.Config
	agent *agent.Agent
	tools *tools.Registry
	log   zerolog.Logger
}

// buildApp resolves fc against the environment and wires provider, executor,
// registry and agent.
func buildApp(fc *agent.FileConfig, getenv func(string) string, log zerolog.Logger) (*app, error) {
	cfg, err := fc.Resolve(getenv)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry()
	builtin.Register(registry, newExecutor(cfg.Shell, log))

	cwd, _ := os.Getwd()
	prompt := agent.BuildSystemPrompt(agent.SystemPromptOptions{
		Base:         cfg.SystemPrompt,
		DescribeHost: cfg.DescribeHost,
		Cwd:          cwd,
		Shell:        cfg.Shell,
	})

	a := agent.New(agent.Options{
		SystemPrompt: prompt,
		Model:        cfg.Model,
		Provider:     provider,
		Tools:        registry,
		CallOptions: ai.Options{
			APIKey:      cfg.APIKey,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		Logger: &log,
	})

	log.Info().
		Str("provider", provider.Name()).
		Str("model", cfg.Model).
		Strs("tools", registry.Names()).
		Msg("agent ready")
	return &app{cfg: cfg, agent: a, tools: registry, log: log}, nil
}

func buildProvider(cfg *agent.Config) (ai.Provider, error) {
	switch cfg.Provider {
	case agent.ProviderGoogle:
		return google.New(cfg.BaseURL, cfg.HTTPTimeout), nil
	case agent.ProviderOpenAI:
		return openai.New(cfg.BaseURL, cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// newExecutor returns an Executor that logs every captured line at debug
// level, tagged with the stream it came from.
func newExecutor(shell string, log zerolog.Logger) *builtin.Executor {
	execLog := log.With().Str("component", "executor").Logger()
	return builtin.NewExecutor(builtin.ExecutorOptions{
		Shell:  shell,
		Logger: &execLog,
		OnLine: func(stream builtin.Stream, line string) {
			execLog.Debug().Str("stream", string(stream)).Msg(line)
		},
	})
}
