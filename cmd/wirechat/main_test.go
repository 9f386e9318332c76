package main

import (
	"testing"

	"github.com/vovakirdan/wirechat-client/internal/config"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "chat"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, cmd, err)
		}
	}
}

func TestChatFlagsOverrideConfig(t *testing.T) {
	cmd := newChatCmd(&globalFlags{})
	if err := cmd.ParseFlags([]string{"--user", "alice", "--simulate"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg := config.Default().Client
	cf := &chatFlags{username: "alice", simulate: true}
	cf.apply(cmd, &cfg)

	if cfg.Username != "alice" || !cfg.Simulate {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.URL != config.Default().Client.URL {
		t.Fatalf("unset --url must keep config value, got %q", cfg.URL)
	}
}
