package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/webhook"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the embed-forwarding webhook endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			pusher, err := ctx.sheetsClient()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := webhook.NewServer(cfg, pusher, logger)
			return server.Run(runCtx)
		},
	}
}
