package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-client/internal/transport"
)

func collect() (transport.Handler, <-chan transport.Signal) {
	ch := make(chan transport.Signal, 16)
	return func(sig transport.Signal) { ch <- sig }, ch
}

func mustSignal(t *testing.T, ch <-chan transport.Signal, kind transport.SignalKind) transport.Signal {
	t.Helper()

	select {
	case sig := <-ch:
		if sig.Kind != kind {
			t.Fatalf("expected %v signal, got %v (err=%v)", kind, sig.Kind, sig.Err)
		}
		return sig
	case <-time.After(3 * time.Second):
		t.Fatalf("expected %v signal, got nothing", kind)
	}
	return transport.Signal{}
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		for {
			typ, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			switch string(data) {
			case "bye":
				conn.Close(websocket.StatusNormalClosure, "done")
				return
			case "fail":
				conn.Close(websocket.StatusInternalError, "boom")
				return
			case "big":
				data = []byte(strings.Repeat("x", 2048))
			}
			if err := conn.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestTransportOpenSendReceiveClose(t *testing.T) {
	srv := echoServer(t)
	tr := New(Options{URL: wsURL(srv)})

	if err := tr.Send([]byte("early")); !errors.Is(err, transport.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen before open, got %v", err)
	}

	h, signals := collect()
	tr.Open(h)
	mustSignal(t, signals, transport.SignalOpen)

	if err := tr.Send([]byte(`{"type":"join","username":"alice"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg := mustSignal(t, signals, transport.SignalMessage)
	if string(msg.Payload) != `{"type":"join","username":"alice"}` {
		t.Fatalf("unexpected echo: %s", msg.Payload)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	mustSignal(t, signals, transport.SignalClose)

	if err := tr.Send([]byte("late")); !errors.Is(err, transport.ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestTransportPeerCloseIsClean(t *testing.T) {
	srv := echoServer(t)
	tr := New(Options{URL: wsURL(srv)})
	defer tr.Close()

	h, signals := collect()
	tr.Open(h)
	mustSignal(t, signals, transport.SignalOpen)

	if err := tr.Send([]byte("bye")); err != nil {
		t.Fatalf("send: %v", err)
	}
	mustSignal(t, signals, transport.SignalClose)
}

func TestTransportAbnormalEndIsError(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		opts    Options
	}{
		{name: "internal error close", trigger: "fail"},
		{name: "frame over read limit", trigger: "big", opts: Options{MaxMessageBytes: 512}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := echoServer(t)
			opts := tt.opts
			opts.URL = wsURL(srv)
			tr := New(opts)
			defer tr.Close()

			h, signals := collect()
			tr.Open(h)
			mustSignal(t, signals, transport.SignalOpen)

			if err := tr.Send([]byte(tt.trigger)); err != nil {
				t.Fatalf("send: %v", err)
			}
			sig := mustSignal(t, signals, transport.SignalError)
			if sig.Err == nil {
				t.Fatalf("expected error detail")
			}
		})
	}
}

func TestTransportDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tr := New(Options{URL: wsURL(srv), DialTimeout: time.Second})
	defer tr.Close()

	h, signals := collect()
	tr.Open(h)
	sig := mustSignal(t, signals, transport.SignalError)
	if sig.Err == nil {
		t.Fatalf("expected error detail")
	}
}

func TestFactoryCreatesDistinctTransports(t *testing.T) {
	factory := NewFactory(Options{URL: "ws://127.0.0.1:1"})
	a, b := factory(), factory()
	if a == b {
		t.Fatalf("factory must create a new transport each call")
	}
}
