package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitop-dev/shellagent/pkg/server"
)

const shutdownGrace = 10 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /agent over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, log, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				fc.ListenAddr = addr
			}
			a, err := buildApp(fc, os.Getenv, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			h := server.NewHandler(a.agent, a.log)
			return server.New(a.cfg.ListenAddr, h, a.log).Start(ctx, shutdownGrace)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}
