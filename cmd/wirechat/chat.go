package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/client"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/console"
	"github.com/vovakirdan/wirechat-client/internal/reconnect"
	"github.com/vovakirdan/wirechat-client/internal/transport"
	"github.com/vovakirdan/wirechat-client/internal/transport/sim"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

type chatFlags struct {
	url       string
	username  string
	simulate  bool
	reconnect bool
}

func newChatCmd(flags *globalFlags) *cobra.Command {
	cf := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join the chat from the terminal",
		Long: "Join the chat from the terminal. Lines are sent as messages;\n" +
			"/reconnect opens a new connection, /users lists who is online, /quit exits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			cf.apply(cmd, &cfg.Client)

			username := strings.TrimSpace(cfg.Client.Username)
			if username == "" {
				return fmt.Errorf("username is required (--user or client.username)")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			session := client.NewSession(newFactory(cfg.Client, logger), client.Options{
				HistoryLimit: cfg.Client.HistoryLimit,
				Logger:       logger,
			})
			go session.Run(ctx)

			if rc := cfg.Client.Reconnect; rc.Enabled {
				policy := reconnect.New(session, reconnect.Config{
					InitialInterval: rc.InitialInterval,
					MaxInterval:     rc.MaxInterval,
					Multiplier:      rc.Multiplier,
					MaxAttempts:     rc.MaxAttempts,
				}, logger)
				go policy.Run(ctx)
			}

			out := cmd.OutOrStdout()
			updates, unsubscribe := session.Subscribe()
			defer unsubscribe()
			rendered := make(chan struct{})
			go func() {
				defer close(rendered)
				r := console.NewRenderer(out)
				for st := range updates {
					r.Render(st)
				}
			}()

			if err := session.SetIdentity(username); err != nil {
				return err
			}
			fmt.Fprintf(out, "Joining as %s. Type messages and press Enter. /quit to exit.\n", username)

			readInput(ctx, cmd.InOrStdin(), out, session)

			cancel()
			<-session.Done()
			<-rendered
			return nil
		},
	}

	cmd.Flags().StringVar(&cf.url, "url", "", "websocket URL of the relay")
	cmd.Flags().StringVar(&cf.username, "user", "", "username to join with")
	cmd.Flags().BoolVar(&cf.simulate, "simulate", false, "use a simulated channel instead of a server")
	cmd.Flags().BoolVar(&cf.reconnect, "auto-reconnect", false, "reconnect with exponential backoff when the connection drops")
	return cmd
}

func (cf *chatFlags) apply(cmd *cobra.Command, cfg *config.ClientConfig) {
	if cmd.Flags().Changed("url") {
		cfg.URL = cf.url
	}
	if cmd.Flags().Changed("user") {
		cfg.Username = cf.username
	}
	if cmd.Flags().Changed("simulate") {
		cfg.Simulate = cf.simulate
	}
	if cmd.Flags().Changed("auto-reconnect") {
		cfg.Reconnect.Enabled = cf.reconnect
	}
}

func newFactory(cfg config.ClientConfig, logger *zerolog.Logger) transport.Factory {
	if cfg.Simulate {
		opts := sim.Defaults()
		opts.Logger = logger
		return sim.NewFactory(opts)
	}
	return ws.NewFactory(ws.Options{
		URL:             cfg.URL,
		DialTimeout:     cfg.DialTimeout,
		SendBuffer:      cfg.SendBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
		Logger:          logger,
	})
}

func readInput(ctx context.Context, in io.Reader, out io.Writer, session *client.Session) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch text := strings.TrimSpace(line); text {
			case "":
			case "/quit":
				return
			case "/reconnect":
				session.RequestReconnect()
			case "/users":
				st := session.State()
				fmt.Fprintln(out, console.RosterLine(st.Roster, st.Identity.Username))
			default:
				session.SendMessage(text)
			}
		}
	}
}
