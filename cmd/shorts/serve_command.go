package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhd2106/youtube-shorts-agents/internal/server"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for video generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			app, store, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, store, app).ListenAndServe(ctx)
		},
	}
}
