package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/config"
	applog "github.com/vovakirdan/wirechat-client/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wirechat: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "wirechat",
		Short:         "Real-time chat client and relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")

	root.AddCommand(newServeCmd(flags), newChatCmd(flags))
	return root
}

// load resolves configuration and the logger shared by all commands.
func (f *globalFlags) load(cmd *cobra.Command) (config.Config, *zerolog.Logger, error) {
	bootstrap := applog.New("warn", cmd.ErrOrStderr())
	cfg, path, err := config.Load(bootstrap, f.configPath)
	if err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	logger := applog.New(cfg.LogLevel, cmd.ErrOrStderr())
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return cfg, logger, nil
}
