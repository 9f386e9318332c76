package core

import "time"

// EventKind identifies an inbound event from the chat channel.
type EventKind int

const (
	// EventNoop is any event the client does not understand. It is ignored.
	EventNoop EventKind = iota
	// EventMessage carries a chat message.
	EventMessage
	// EventUserJoined carries the full roster after someone joined.
	EventUserJoined
	// EventUserLeft carries the full roster after someone left.
	EventUserLeft
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventUserJoined:
		return "userJoined"
	case EventUserLeft:
		return "userLeft"
	default:
		return "noop"
	}
}

// Event is a decoded inbound event.
type Event struct {
	Kind      EventKind
	Tag       string // wire tag as received, kept for Noop diagnostics
	Username  string
	Text      string
	Timestamp time.Time
	Users     []string // full roster snapshot for join/leave events
}

// Message converts a message event to the log entry it produces.
func (e Event) Message() ChatMessage {
	return ChatMessage{
		Username:  e.Username,
		Text:      e.Text,
		Timestamp: e.Timestamp,
	}
}
