package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bitop-dev/shellagent/pkg/agent"
	"github.com/bitop-dev/shellagent/pkg/logging"
)

var appVersion = "dev"

const defaultEnvFile = ".env"

type rootFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:          "shellagent",
		Short:        "Let an LLM answer by running shell commands",
		Version:      appVersion,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (.yaml or .toml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", defaultEnvFile, "dotenv file loaded into the environment before the config is read")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newAskCmd(flags))
	root.AddCommand(newExecCmd(flags))
	return root
}

// loadEnv loads the dotenv file. Variables already set in the environment
// win. A missing file is an error only when --env-file was given.
func (f *rootFlags) loadEnv(cmd *cobra.Command) error {
	if f.envFile == "" {
		return nil
	}
	err := godotenv.Load(f.envFile)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	return fmt.Errorf("env file %s: %w", f.envFile, err)
}

// loadConfig loads the dotenv file, reads the config file and builds the
// logger it describes.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*agent.FileConfig, zerolog.Logger, error) {
	if err := f.loadEnv(cmd); err != nil {
		return nil, zerolog.Nop(), err
	}
	fc, err := agent.LoadFileConfig(f.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if f.verbose {
		fc.Log.Level = "debug"
	}
	log, err := logging.New(fc.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	return fc, log, nil
}
