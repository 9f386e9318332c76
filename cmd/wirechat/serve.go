package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a single-room relay for chat clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			logger.Info().Str("addr", cfg.Server.Addr).Msg("starting wirechat relay")
			if err := app.New(cfg.Server, logger).Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	return cmd
}
