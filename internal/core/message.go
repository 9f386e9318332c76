package core

import "time"

// ChatMessage is a single line of the chat log as delivered by the channel.
type ChatMessage struct {
	Username  string
	Text      string
	Timestamp time.Time
}
