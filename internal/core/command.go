package core

// IntentKind describes what the local user asks the channel to do.
type IntentKind int

const (
	// IntentJoin announces the user to the channel.
	IntentJoin IntentKind = iota
	// IntentSendMessage posts a chat message.
	IntentSendMessage
)

// Intent is an outbound request, as produced by the client and consumed by a relay.
type Intent struct {
	Kind     IntentKind
	Username string
	Text     string
}
