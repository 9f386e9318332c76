package sim

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/client"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

func fastOptions() Options {
	return Options{
		OpenDelay:       time.Millisecond,
		JoinInterval:    5 * time.Millisecond,
		GreetDelay:      time.Millisecond,
		ChatterInterval: 0,
		EchoDelay:       time.Millisecond,
		Users:           []string{"Alice", "Bob"},
		Lines:           []string{"hello"},
		Seed:            42,
	}
}

func waitFor(t *testing.T, s *client.Session, what string, cond func(core.ClientState) bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond(s.State()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; state %+v", what, s.State())
}

func TestSimulatedChannelWithSession(t *testing.T) {
	s := client.NewSession(NewFactory(fastOptions()), client.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-s.Done()
	}()
	go s.Run(ctx)

	if err := s.SetIdentity("Zed"); err != nil {
		t.Fatalf("set identity: %v", err)
	}
	waitFor(t, s, "connected", func(st core.ClientState) bool { return st.Connection == core.Connected })
	waitFor(t, s, "Bob and Zed online", func(st core.ClientState) bool {
		return st.Online("Bob") && st.Online("Zed")
	})
	waitFor(t, s, "Bob's greeting", func(st core.ClientState) bool {
		return slices.ContainsFunc(st.Messages, func(m core.ChatMessage) bool { return m.Username == "Bob" })
	})

	s.SendMessage("hi all")
	waitFor(t, s, "echo", func(st core.ClientState) bool {
		return slices.ContainsFunc(st.Messages, func(m core.ChatMessage) bool {
			return m.Username == "Zed" && m.Text == "hi all" && !m.Timestamp.IsZero()
		})
	})
}

func TestCloseBeforeOpen(t *testing.T) {
	opts := fastOptions()
	opts.OpenDelay = time.Hour
	tr := New(opts)

	signals := make(chan transport.Signal, 4)
	tr.Open(func(sig transport.Signal) { signals <- sig })

	if err := tr.Send([]byte(`{"type":"join","username":"x"}`)); !errors.Is(err, transport.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	_ = tr.Close()
	_ = tr.Close()

	select {
	case sig := <-signals:
		if sig.Kind != transport.SignalClose {
			t.Fatalf("expected close, got %v", sig.Kind)
		}
	case <-time.After(time.Second):
		t.Fatalf("no close signal")
	}
	if err := tr.Send([]byte("x")); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
