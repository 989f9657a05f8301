package builtin

import "github.com/bitop-dev/shellagent/pkg/tools"

// Register adds every built-in tool, backed by exec, to reg.
// run_command is currently the only one.
func Register(reg *tools.Registry, exec *Executor) {
	reg.Register(NewRunCommandTool(exec))
}
