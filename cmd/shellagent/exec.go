package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

func newExecCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command>",
		Short: "Run a shell command and print the captured result as JSON",
		Long: "Runs the command exactly as the run_command tool would and prints\n" +
			"{\"command\": ..., \"output\": ...}. No API key is needed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, log, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			res := newExecutor(fc.Shell, log).Execute(strings.Join(args, " "))

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
