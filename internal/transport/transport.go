// Package transport defines the contract between the chat client core and a
// bidirectional message channel.
package transport

import "errors"

var (
	// ErrClosed is returned by Send after the transport was closed.
	ErrClosed = errors.New("transport closed")
	// ErrNotOpen is returned by Send before the transport opened.
	ErrNotOpen = errors.New("transport not open")
	// ErrSendBufferFull is returned when outbound payloads are not drained fast enough.
	ErrSendBufferFull = errors.New("send buffer full")
)

// SignalKind is what a transport reports about itself.
type SignalKind int

const (
	// SignalOpen reports that the channel is ready for Send.
	SignalOpen SignalKind = iota
	// SignalMessage carries one inbound payload.
	SignalMessage
	// SignalClose reports an orderly close, local or remote.
	SignalClose
	// SignalError reports a failure; the transport is unusable afterwards.
	SignalError
)

func (k SignalKind) String() string {
	switch k {
	case SignalOpen:
		return "open"
	case SignalMessage:
		return "message"
	case SignalClose:
		return "close"
	case SignalError:
		return "error"
	default:
		return "unknown"
	}
}

// Signal is one notification from a transport.
type Signal struct {
	Kind    SignalKind
	Payload []byte // SignalMessage only
	Err     error  // SignalError only
}

// Handler receives the signals of one transport, in order.
type Handler func(Signal)

// Transport is a single connection attempt. It is never reused: reconnecting
// creates a new Transport through a Factory.
type Transport interface {
	// Open starts connecting and returns immediately. Signals are delivered to
	// h from another goroutine, never from within Open, Send or Close.
	Open(h Handler)
	// Send queues payload for delivery. It does not wait for the network.
	Send(payload []byte) error
	// Close tears the connection down. It is safe to call more than once.
	Close() error
}

// Factory creates a fresh Transport for each connection attempt.
type Factory func() Transport
