package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bitop-dev/shellagent/pkg/ai"
	"github.com/bitop-dev/shellagent/pkg/tools"
)

// RunCommandName is the tool name the model uses to request a command.
const RunCommandName = "run_command"

// RunCommandTool exposes an Executor to the model. The result content is the
// CommandResult encoded as JSON; Details carries the CommandResult itself.
type RunCommandTool struct {
	executor *Executor
}

// NewRunCommandTool wraps exec. A nil exec uses a default Executor.
func NewRunCommandTool(exec *Executor) *RunCommandTool {
	if exec == nil {
		exec = NewExecutor(ExecutorOptions{})
	}
	return &RunCommandTool{executor: exec}
}

func (t *RunCommandTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name: RunCommandName,
		Description: "Run a shell command and return the output. " +
			"The result holds the command that was executed and the terminal output: " +
			"all stdout lines followed by all stderr lines. " +
			"A failing command is not an error; read its output to see what happened.",
		Parameters: tools.MustSchema(tools.SimpleSchema{
			Properties: map[string]tools.Property{
				"command": {Type: "string", Description: "a shell command to be run"},
			},
			Required: []string{"command"},
		}),
	}
}

func (t *RunCommandTool) Execute(_ context.Context, _ string, params map[string]any) (tools.Result, error) {
	command, ok := params["command"].(string)
	if !ok {
		return tools.Result{}, fmt.Errorf("run_command: command must be a string, got %T", params["command"])
	}

	res := t.executor.Execute(command)
	body, err := json.Marshal(res)
	if err != nil {
		return tools.Result{}, fmt.Errorf("run_command: encode result: %w", err)
	}
	out := tools.TextResult(string(body))
	out.Details = res
	return out, nil
}
