package proto

// Wire tags. Every payload is one JSON object carrying its tag in "type".
const (
	TypeJoin       = "join"
	TypeMessage    = "message"
	TypeUserJoined = "userJoined"
	TypeUserLeft   = "userLeft"
)

// Envelope is the part every payload shares. Decoding reads it first to pick
// the record type.
type Envelope struct {
	Type string `json:"type"`
}

// Join announces a user to the channel.
type Join struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// SendMessage is a chat message posted by a client.
type SendMessage struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Message is a chat message delivered by the channel.
type Message struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// RosterUpdate is sent on userJoined and userLeft; Users is the full roster.
type RosterUpdate struct {
	Type     string   `json:"type"`
	Username string   `json:"username"`
	Users    []string `json:"users"`
}
