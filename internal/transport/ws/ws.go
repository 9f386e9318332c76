// Package ws is a websocket transport for the chat client.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-client/internal/transport"
)

// Options configure a websocket transport.
type Options struct {
	URL             string
	DialTimeout     time.Duration
	SendBuffer      int
	MaxMessageBytes int64
	Logger          *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Transport is a single websocket connection attempt.
type Transport struct {
	opts   Options
	outbox chan []byte
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	open   bool
	closed bool
}

// New creates an unopened transport.
func New(opts Options) *Transport {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		opts:   opts,
		outbox: make(chan []byte, opts.SendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// NewFactory returns a factory producing websocket transports with opts.
func NewFactory(opts Options) transport.Factory {
	return func() transport.Transport {
		return New(opts)
	}
}

// Open dials in the background and reports progress to h.
func (t *Transport) Open(h transport.Handler) {
	go t.run(h)
}

// Send queues payload as a text frame.
func (t *Transport) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return transport.ErrClosed
	}
	if !t.open {
		return transport.ErrNotOpen
	}
	select {
	case t.outbox <- payload:
		return nil
	default:
		return transport.ErrSendBufferFull
	}
}

// Close stops the connection. The handler sees SignalClose once it is down.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	return nil
}

func (t *Transport) run(h transport.Handler) {
	log := t.opts.Logger.With().Str("url", t.opts.URL).Logger()

	dialCtx, cancelDial := context.WithTimeout(t.ctx, t.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, t.opts.URL, nil)
	cancelDial()
	if err != nil {
		if t.ctx.Err() != nil {
			h(transport.Signal{Kind: transport.SignalClose})
			return
		}
		h(transport.Signal{Kind: transport.SignalError, Err: fmt.Errorf("dial: %w", err)})
		return
	}
	defer conn.CloseNow()
	if t.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(t.opts.MaxMessageBytes)
	}

	t.mu.Lock()
	t.open = !t.closed
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.open = false
		t.mu.Unlock()
	}()

	log.Debug().Msg("websocket open")
	h(transport.Signal{Kind: transport.SignalOpen})

	g, ctx := errgroup.WithContext(t.ctx)
	g.Go(func() error { return t.readLoop(ctx, conn, h) })
	g.Go(func() error { return t.writeLoop(ctx, conn) })
	err = g.Wait()

	if t.ctx.Err() != nil {
		// Local close.
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		h(transport.Signal{Kind: transport.SignalClose})
		return
	}
	if clean(err) {
		log.Debug().Msg("websocket closed by peer")
		h(transport.Signal{Kind: transport.SignalClose})
		return
	}
	log.Warn().Err(err).Msg("websocket failed")
	h(transport.Signal{Kind: transport.SignalError, Err: err})
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn, h transport.Handler) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		h(transport.Signal{Kind: transport.SignalMessage, Payload: data})
	}
}

func (t *Transport) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case payload := <-t.outbox:
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func clean(err error) bool {
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}
