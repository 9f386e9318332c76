package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// ErrMalformedEvent is returned for payloads that are not a tagged JSON object.
var ErrMalformedEvent = errors.New("malformed event")

// TimestampLayout is the ISO-8601 form used on the wire.
const TimestampLayout = time.RFC3339Nano

// Decode parses an inbound payload into a domain event. Unknown tags decode to
// core.EventNoop without error, whatever their fields hold.
func Decode(payload []byte) (core.Event, error) {
	tag, err := envelope(payload)
	if err != nil {
		return core.Event{}, err
	}

	switch tag {
	case TypeMessage:
		var msg Message
		if err := unmarshal(payload, &msg); err != nil {
			return core.Event{}, err
		}
		ev := core.Event{
			Kind:     core.EventMessage,
			Tag:      tag,
			Username: msg.Username,
			Text:     msg.Text,
		}
		if msg.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, msg.Timestamp)
			if err != nil {
				return core.Event{}, fmt.Errorf("%w: timestamp %q: %v", ErrMalformedEvent, msg.Timestamp, err)
			}
			ev.Timestamp = ts
		}
		return ev, nil
	case TypeUserJoined, TypeUserLeft:
		var upd RosterUpdate
		if err := unmarshal(payload, &upd); err != nil {
			return core.Event{}, err
		}
		kind := core.EventUserJoined
		if tag == TypeUserLeft {
			kind = core.EventUserLeft
		}
		return core.Event{
			Kind:     kind,
			Tag:      tag,
			Username: upd.Username,
			Users:    upd.Users,
		}, nil
	default:
		return core.Event{Kind: core.EventNoop, Tag: tag}, nil
	}
}

// DecodeIntent parses a payload sent by a client.
func DecodeIntent(payload []byte) (core.Intent, error) {
	tag, err := envelope(payload)
	if err != nil {
		return core.Intent{}, err
	}

	switch tag {
	case TypeJoin:
		var join Join
		if err := unmarshal(payload, &join); err != nil {
			return core.Intent{}, err
		}
		return core.Intent{Kind: core.IntentJoin, Username: join.Username}, nil
	case TypeMessage:
		var msg SendMessage
		if err := unmarshal(payload, &msg); err != nil {
			return core.Intent{}, err
		}
		return core.Intent{Kind: core.IntentSendMessage, Username: msg.Username, Text: msg.Text}, nil
	default:
		return core.Intent{}, fmt.Errorf("%w: unsupported intent %q", ErrMalformedEvent, tag)
	}
}

// envelope reads only the tag, so fields of unknown records are never typed.
func envelope(payload []byte) (string, error) {
	var env Envelope
	if err := unmarshal(payload, &env); err != nil {
		return "", err
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return env.Type, nil
}

func unmarshal(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// EncodeJoin builds the join payload for username.
func EncodeJoin(username string) ([]byte, error) {
	return json.Marshal(Join{Type: TypeJoin, Username: username})
}

// EncodeMessage builds an outbound chat message payload.
func EncodeMessage(username, text string) ([]byte, error) {
	return json.Marshal(SendMessage{Type: TypeMessage, Username: username, Text: text})
}

// EncodeChatMessage builds the payload a relay broadcasts for msg.
func EncodeChatMessage(msg core.ChatMessage) ([]byte, error) {
	return json.Marshal(Message{
		Type:      TypeMessage,
		Username:  msg.Username,
		Text:      msg.Text,
		Timestamp: msg.Timestamp.UTC().Format(TimestampLayout),
	})
}

// EncodeUserJoined builds a roster update after username joined.
func EncodeUserJoined(username string, users []string) ([]byte, error) {
	return encodeRoster(TypeUserJoined, username, users)
}

// EncodeUserLeft builds a roster update after username left.
func EncodeUserLeft(username string, users []string) ([]byte, error) {
	return encodeRoster(TypeUserLeft, username, users)
}

func encodeRoster(tag, username string, users []string) ([]byte, error) {
	if users == nil {
		users = []string{}
	}
	return json.Marshal(RosterUpdate{Type: tag, Username: username, Users: users})
}
