// Package client keeps a local view of a chat channel in sync with the server.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// ErrSessionClosed is returned by intents issued after Run has returned.
var ErrSessionClosed = errors.New("session closed")

const defaultCommandBuffer = 64

// Options tune a Session.
type Options struct {
	// HistoryLimit caps retained messages; zero keeps all, at a copy cost
	// per message that grows with the log (see core.Reducer).
	HistoryLimit int
	// CommandBuffer is the depth of the intent and signal queue.
	CommandBuffer int
	Logger        *zerolog.Logger
}

type commandKind int

const (
	commandSetIdentity commandKind = iota
	commandConnect
	commandReconnect
	commandSendMessage
	commandSignal
)

type command struct {
	kind   commandKind
	text   string
	gen    uint64
	signal transport.Signal
	reply  chan error
}

// Session owns the client state. All intents and transport signals are queued
// and applied one at a time by Run; readers only ever see snapshots.
type Session struct {
	machine  *Machine
	commands chan command
	done     chan struct{}
	log      *zerolog.Logger

	snapshot atomic.Pointer[core.ClientState]

	mu      sync.Mutex
	subs    map[uint64]chan core.ClientState
	nextSub uint64
	closed  bool
}

// NewSession creates a session that connects through factory.
func NewSession(factory transport.Factory, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	buf := opts.CommandBuffer
	if buf <= 0 {
		buf = defaultCommandBuffer
	}

	s := &Session{
		commands: make(chan command, buf),
		done:     make(chan struct{}),
		log:      logger,
		subs:     make(map[uint64]chan core.ClientState),
	}
	s.machine = NewMachine(factory, s.bind, core.Reducer{HistoryLimit: opts.HistoryLimit}, logger)

	initial := s.machine.State()
	s.snapshot.Store(&initial)
	return s
}

// Run processes intents and signals until ctx is cancelled, then closes the
// transport and all subscriptions. It must be called exactly once.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			if s.machine.Close() {
				s.publish()
			}
			s.closeSubscribers()
			return
		case cmd := <-s.commands:
			changed, err := s.handle(cmd)
			if changed {
				s.publish()
			}
			// Reply after publishing so callers observe their own change.
			if cmd.reply != nil {
				cmd.reply <- err
			}
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the latest snapshot. The slices in it must not be modified.
func (s *Session) State() core.ClientState {
	return *s.snapshot.Load()
}

// SetIdentity sets the username once and starts connecting.
func (s *Session) SetIdentity(username string) error {
	return s.call(commandSetIdentity, username)
}

// Connect starts connecting if no transport is live.
func (s *Session) Connect() error {
	return s.call(commandConnect, "")
}

// RequestReconnect asks for a fresh transport. It is ignored while one is live.
func (s *Session) RequestReconnect() {
	s.post(command{kind: commandReconnect})
}

// SendMessage posts text to the channel. It is silently dropped unless the
// session is connected.
func (s *Session) SendMessage(text string) {
	s.post(command{kind: commandSendMessage, text: text})
}

// Subscribe returns a channel that receives the latest state after every
// change, starting with the current one. Slow readers only see the newest
// snapshot. The channel is closed when Run returns or cancel is called.
func (s *Session) Subscribe() (<-chan core.ClientState, func()) {
	ch := make(chan core.ClientState, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- *s.snapshot.Load()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

func (s *Session) bind(gen uint64) transport.Handler {
	return func(sig transport.Signal) {
		s.post(command{kind: commandSignal, gen: gen, signal: sig})
	}
}

func (s *Session) post(cmd command) bool {
	select {
	case s.commands <- cmd:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) call(kind commandKind, text string) error {
	reply := make(chan error, 1)
	if !s.post(command{kind: kind, text: text, reply: reply}) {
		return ErrSessionClosed
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) handle(cmd command) (bool, error) {
	switch cmd.kind {
	case commandSetIdentity:
		if err := s.machine.SetIdentity(cmd.text); err != nil {
			return false, err
		}
		_, err := s.machine.Connect()
		return true, err
	case commandConnect:
		return s.machine.Connect()
	case commandReconnect:
		changed, err := s.machine.Reconnect()
		if err != nil {
			s.log.Debug().Err(err).Msg("reconnect ignored")
		}
		return changed, nil
	case commandSendMessage:
		if err := s.machine.SendMessage(cmd.text); err != nil {
			if errors.Is(err, core.ErrInvalidIntent) {
				s.log.Debug().Err(err).Msg("message dropped")
			} else {
				s.log.Warn().Err(err).Msg("message not sent")
			}
		}
		return false, nil
	case commandSignal:
		return s.machine.HandleSignal(cmd.gen, cmd.signal), nil
	default:
		return false, nil
	}
}

func (s *Session) publish() {
	st := s.machine.State()
	s.snapshot.Store(&st)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Keep only the newest snapshot in the buffer.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
