package core

import "slices"

// ConnectionState is the lifecycle phase of the link to the chat channel.
type ConnectionState int

const (
	// Disconnected is the initial state and the state after a clean close.
	Disconnected ConnectionState = iota
	// Connecting means a transport was created and is waiting to open.
	Connecting
	// Connected means the transport is open and the join intent was sent.
	Connected
	// Errored means the transport reported a failure; only a reconnect leaves it.
	Errored
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

// Live reports whether a transport is in use for this state.
func (s ConnectionState) Live() bool {
	return s == Connecting || s == Connected
}

// Identity is who the local user is for the whole session.
type Identity struct {
	Username string
}

// ClientState is everything the client knows about the channel.
//
// Values handed out by the session are snapshots: slices are shared between
// snapshots and must be treated as read-only.
type ClientState struct {
	Connection ConnectionState
	Messages   []ChatMessage
	Roster     []string
	Identity   Identity
	// Received counts every applied message event, including ones that a
	// history limit has since dropped from Messages.
	Received int
}

// Online reports whether username is in the current roster.
func (s ClientState) Online(username string) bool {
	return slices.Contains(s.Roster, username)
}
