package relay

import (
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func mustEvent(t *testing.T, ch <-chan []byte, kind core.EventKind) core.Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				t.Fatalf("outbox closed while waiting for %v", kind)
			}
			ev, err := proto.Decode(payload)
			if err != nil {
				t.Fatalf("hub sent undecodable payload %s: %v", payload, err)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

func join(t *testing.T, h *Hub, c *Client, name string) {
	t.Helper()

	payload, err := proto.EncodeJoin(name)
	if err != nil {
		t.Fatalf("encode join: %v", err)
	}
	h.Submit(c, payload)
}

func say(t *testing.T, h *Hub, c *Client, text string) {
	t.Helper()

	payload, err := proto.EncodeMessage(c.Name, text)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	h.Submit(c, payload)
}
