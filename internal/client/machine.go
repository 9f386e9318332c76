package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// Binder returns the handler a transport of the given generation reports to.
type Binder func(gen uint64) transport.Handler

// Machine is the connection state machine and intent dispatcher. It is not
// safe for concurrent use; Session serializes all calls.
type Machine struct {
	state   core.ClientState
	reducer core.Reducer
	factory transport.Factory
	bind    Binder
	log     *zerolog.Logger
	now     func() time.Time

	conn transport.Transport
	gen  uint64
}

// NewMachine builds a machine in the Disconnected state.
func NewMachine(factory transport.Factory, bind Binder, reducer core.Reducer, logger *zerolog.Logger) *Machine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Machine{
		reducer: reducer,
		factory: factory,
		bind:    bind,
		log:     logger,
		now:     time.Now,
	}
}

// State returns the current state.
func (m *Machine) State() core.ClientState {
	return m.state
}

// Generation returns the id of the current transport; zero before the first connect.
func (m *Machine) Generation() uint64 {
	return m.gen
}

// SetIdentity records the local username. It may be called only once.
func (m *Machine) SetIdentity(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.ErrEmptyUsername
	}
	if m.state.Identity.Username != "" {
		return core.ErrIdentitySet
	}
	m.state.Identity = core.Identity{Username: username}
	return nil
}

// Connect opens a new transport unless one is already live. It reports whether
// the state changed.
func (m *Machine) Connect() (bool, error) {
	if m.state.Identity.Username == "" {
		return false, core.ErrNoIdentity
	}
	if m.state.Connection.Live() {
		return false, nil
	}

	// An errored transport may still hold resources.
	m.release()

	m.gen++
	m.conn = m.factory()
	m.state.Connection = core.Connecting
	m.log.Debug().Uint64("generation", m.gen).Msg("opening transport")
	m.conn.Open(m.bind(m.gen))
	return true, nil
}

// Reconnect is the user-facing form of Connect.
func (m *Machine) Reconnect() (bool, error) {
	return m.Connect()
}

// Close tears down the current transport and returns to Disconnected.
func (m *Machine) Close() bool {
	if m.conn == nil && m.state.Connection == core.Disconnected {
		return false
	}
	m.release()
	changed := m.state.Connection != core.Disconnected
	m.state.Connection = core.Disconnected
	return changed
}

// HandleSignal applies a transport signal. Signals from any generation other
// than the current one are dropped. It reports whether the state changed.
func (m *Machine) HandleSignal(gen uint64, sig transport.Signal) bool {
	if gen != m.gen || m.conn == nil {
		m.log.Debug().
			Uint64("generation", gen).
			Uint64("current", m.gen).
			Stringer("signal", sig.Kind).
			Msg("dropping signal from stale transport")
		return false
	}

	switch sig.Kind {
	case transport.SignalOpen:
		return m.opened()
	case transport.SignalMessage:
		return m.received(sig.Payload)
	case transport.SignalClose:
		m.release()
		if m.state.Connection == core.Disconnected {
			return false
		}
		m.state.Connection = core.Disconnected
		m.log.Info().Uint64("generation", gen).Msg("transport closed")
		return true
	case transport.SignalError:
		m.release()
		m.log.Warn().Err(sig.Err).Uint64("generation", gen).Msg("transport error")
		if m.state.Connection == core.Errored {
			return false
		}
		m.state.Connection = core.Errored
		return true
	default:
		return false
	}
}

func (m *Machine) opened() bool {
	if m.state.Connection != core.Connecting {
		return false
	}
	m.state.Connection = core.Connected
	m.log.Info().Str("username", m.state.Identity.Username).Uint64("generation", m.gen).Msg("connected")

	payload, err := proto.EncodeJoin(m.state.Identity.Username)
	if err != nil {
		m.log.Error().Err(err).Msg("encode join")
		return true
	}
	if err := m.conn.Send(payload); err != nil {
		m.log.Warn().Err(err).Msg("send join")
	}
	return true
}

func (m *Machine) received(payload []byte) bool {
	if m.state.Connection != core.Connected {
		return false
	}

	ev, err := proto.Decode(payload)
	if err != nil {
		m.log.Warn().Err(err).Int("bytes", len(payload)).Msg("dropping inbound payload")
		return false
	}
	if ev.Kind == core.EventNoop {
		m.log.Debug().Str("type", ev.Tag).Msg("ignoring unknown event")
		return false
	}
	if ev.Kind == core.EventMessage && ev.Timestamp.IsZero() {
		ev.Timestamp = m.now()
	}

	m.state = m.reducer.Apply(m.state, ev)
	return true
}

// SendMessage dispatches a chat message. It fails with core.ErrInvalidIntent
// unless the machine is Connected.
func (m *Machine) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty message", core.ErrInvalidIntent)
	}
	if m.state.Connection != core.Connected {
		return fmt.Errorf("%w: send while %s", core.ErrInvalidIntent, m.state.Connection)
	}

	payload, err := proto.EncodeMessage(m.state.Identity.Username, text)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := m.conn.Send(payload); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (m *Machine) release() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		m.log.Debug().Err(err).Uint64("generation", m.gen).Msg("close transport")
	}
	m.conn = nil
}
