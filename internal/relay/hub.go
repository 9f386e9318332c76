// Package relay is a single-room chat server speaking the client wire
// protocol: it tracks who joined, broadcasts messages with a server
// timestamp and sends the full roster whenever someone joins or leaves.
package relay

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

type inbound struct {
	client  *Client
	payload []byte
}

// Hub owns the room state. All changes happen on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}

	clients map[*Client]struct{}
	roster  []string

	log *zerolog.Logger
	now func() time.Time
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		log:        logger,
		now:        time.Now,
	}
}

// Run processes registrations and payloads until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.Outbox)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			h.remove(c)
		case in := <-h.inbound:
			h.handle(in.client, in.payload)
		}
	}
}

// RegisterClient adds c to the hub. Nothing is broadcast until it joins.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes c and announces its departure if it had joined.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit hands a raw client payload to the hub.
func (h *Hub) Submit(c *Client, payload []byte) {
	select {
	case h.inbound <- inbound{client: c, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) handle(c *Client, payload []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	intent, err := proto.DecodeIntent(payload)
	if err != nil {
		h.log.Warn().Err(err).Str("client_id", c.ID).Msg("dropping client payload")
		return
	}

	switch intent.Kind {
	case core.IntentJoin:
		name := strings.TrimSpace(intent.Username)
		if name == "" || c.joined() {
			h.log.Warn().Str("client_id", c.ID).Str("username", name).Msg("ignoring join")
			return
		}
		c.Name = name
		h.roster = append(h.roster, name)
		h.log.Info().Str("client_id", c.ID).Str("username", name).Int("online", len(h.roster)).Msg("user joined")
		h.broadcastEncoded(func() ([]byte, error) { return proto.EncodeUserJoined(name, h.roster) })
	case core.IntentSendMessage:
		if !c.joined() {
			h.log.Warn().Str("client_id", c.ID).Msg("message before join")
			return
		}
		if strings.TrimSpace(intent.Text) == "" {
			return
		}
		// The joined name is authoritative, not the one in the payload.
		msg := core.ChatMessage{Username: c.Name, Text: intent.Text, Timestamp: h.now()}
		h.broadcastEncoded(func() ([]byte, error) { return proto.EncodeChatMessage(msg) })
	}
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Outbox)
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")

	if !c.joined() {
		return
	}
	if i := slices.Index(h.roster, c.Name); i >= 0 {
		h.roster = slices.Delete(h.roster, i, i+1)
	}
	h.log.Info().Str("username", c.Name).Int("online", len(h.roster)).Msg("user left")
	name := c.Name
	h.broadcastEncoded(func() ([]byte, error) { return proto.EncodeUserLeft(name, h.roster) })
}

func (h *Hub) broadcastEncoded(encode func() ([]byte, error)) {
	payload, err := encode()
	if err != nil {
		h.log.Error().Err(err).Msg("encode broadcast")
		return
	}
	for c := range h.clients {
		if !c.joined() {
			continue
		}
		select {
		case c.Outbox <- payload:
		default:
			// Drop if slow consumer.
			h.log.Warn().Str("client_id", c.ID).Msg("outbox full, dropping payload")
		}
	}
}
