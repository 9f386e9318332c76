package client

import (
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

type fakeTransport struct {
	mu      sync.Mutex
	handler transport.Handler
	sent    []string
	opens   int
	closes  int
}

func (f *fakeTransport) Open(h transport.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.handler = h
}

func (f *fakeTransport) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes > 0 {
		return transport.ErrClosed
	}
	f.sent = append(f.sent, string(payload))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

// emit delivers a signal the way a real transport would, from outside the session loop.
func (f *fakeTransport) emit(sig transport.Signal) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(sig)
}

func (f *fakeTransport) sentPayloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeTransport) closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes > 0
}

type fakeFactory struct {
	mu      sync.Mutex
	created []*fakeTransport
}

func (f *fakeFactory) New() transport.Transport {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr := &fakeTransport{}
	f.created = append(f.created, tr)
	return tr
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeFactory) last() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

func waitFor(t *testing.T, s *Session, what string, cond func(core.ClientState) bool) core.ClientState {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.State(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s; last state %+v", what, s.State())
	return core.ClientState{}
}

func inState(want core.ConnectionState) func(core.ClientState) bool {
	return func(st core.ClientState) bool { return st.Connection == want }
}
