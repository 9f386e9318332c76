// Package sim is an in-process transport that plays a busy chat channel.
// It needs no server and is meant for demos and tests.
package sim

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
)

var (
	defaultUsers = []string{"Alice", "Bob", "Charlie", "Diana"}
	defaultLines = []string{
		"Hello everyone!",
		"How is everyone doing?",
		"Great to be here!",
		"Anyone working on interesting projects?",
		"Nice weather today!",
		"What do you think about the new update?",
	}
)

// Options control the pace of the simulation.
type Options struct {
	OpenDelay       time.Duration // before the channel opens
	JoinInterval    time.Duration // between simulated users joining
	GreetDelay      time.Duration // from a join to the newcomer's first line
	ChatterInterval time.Duration // between chances of a random line
	ChatterChance   float64       // probability of a line per chatter tick
	EchoDelay       time.Duration // before an own message comes back
	Users           []string      // Users[0] is online from the start
	Lines           []string
	Seed            uint64 // zero picks a time-based seed
	Logger          *zerolog.Logger
}

// Defaults mirror a lively but readable room.
func Defaults() Options {
	return Options{
		OpenDelay:       time.Second,
		JoinInterval:    5 * time.Second,
		GreetDelay:      2 * time.Second,
		ChatterInterval: 8 * time.Second,
		ChatterChance:   0.3,
		EchoDelay:       100 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if len(o.Users) == 0 {
		o.Users = defaultUsers
	}
	if len(o.Lines) == 0 {
		o.Lines = defaultLines
	}
	if o.Seed == 0 {
		o.Seed = uint64(time.Now().UnixNano())
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Transport is one simulated connection.
type Transport struct {
	opts    Options
	rng     *rand.Rand
	inbound chan []byte // sent by the client
	later   chan []byte // delayed server payloads
	done    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	open bool
}

// New creates an unopened simulated transport.
func New(opts Options) *Transport {
	opts = opts.withDefaults()
	return &Transport{
		opts:    opts,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		inbound: make(chan []byte, 16),
		later:   make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

// NewFactory returns a factory of simulated transports.
func NewFactory(opts Options) transport.Factory {
	return func() transport.Transport {
		return New(opts)
	}
}

// Open starts the simulation.
func (t *Transport) Open(h transport.Handler) {
	go t.run(h)
}

// Send hands a client payload to the simulated server.
func (t *Transport) Send(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return transport.ErrClosed
	default:
	}
	if !t.open {
		return transport.ErrNotOpen
	}
	select {
	case t.inbound <- payload:
		return nil
	default:
		return transport.ErrSendBufferFull
	}
}

// Close ends the simulation; the handler receives SignalClose.
func (t *Transport) Close() error {
	t.once.Do(func() {
		t.mu.Lock()
		t.open = false
		close(t.done)
		t.mu.Unlock()
	})
	return nil
}

func (t *Transport) run(h transport.Handler) {
	opened := time.NewTimer(t.opts.OpenDelay)
	defer opened.Stop()
	select {
	case <-opened.C:
	case <-t.done:
		h(transport.Signal{Kind: transport.SignalClose})
		return
	}

	t.mu.Lock()
	select {
	case <-t.done:
		t.mu.Unlock()
		h(transport.Signal{Kind: transport.SignalClose})
		return
	default:
		t.open = true
	}
	t.mu.Unlock()
	h(transport.Signal{Kind: transport.SignalOpen})

	w := &world{t: t, online: slices.Clone(t.opts.Users[:1]), next: 1}
	join := newTicker(t.opts.JoinInterval)
	defer join.Stop()
	chatter := newTicker(t.opts.ChatterInterval)
	defer chatter.Stop()

	for {
		select {
		case <-t.done:
			h(transport.Signal{Kind: transport.SignalClose})
			return
		case payload := <-t.inbound:
			w.handle(payload)
		case payload := <-t.later:
			h(transport.Signal{Kind: transport.SignalMessage, Payload: payload})
		case <-join.C:
			if !w.joinNext(h) {
				join.Stop()
			}
		case <-chatter.C:
			if t.rng.Float64() < t.opts.ChatterChance {
				w.chatter()
			}
		}
	}
}

// after delivers payload from the run loop once d has passed.
func (t *Transport) after(d time.Duration, payload []byte) {
	time.AfterFunc(d, func() {
		select {
		case t.later <- payload:
		case <-t.done:
		}
	})
}

// world is the simulated server state, owned by the run loop.
type world struct {
	t      *Transport
	online []string
	next   int // index into Users of the next user to join
	self   string
}

func (w *world) joinNext(h transport.Handler) bool {
	users := w.t.opts.Users
	if w.next >= len(users) {
		return false
	}
	name := users[w.next]
	w.next++
	w.online = append(w.online, name)

	w.emit(h, func() ([]byte, error) { return proto.EncodeUserJoined(name, w.roster()) })
	w.say(w.t.opts.GreetDelay, name)
	return w.next < len(users)
}

func (w *world) chatter() {
	name := w.online[w.t.rng.IntN(len(w.online))]
	w.say(0, name)
}

func (w *world) say(delay time.Duration, name string) {
	line := w.t.opts.Lines[w.t.rng.IntN(len(w.t.opts.Lines))]
	payload, err := proto.EncodeChatMessage(core.ChatMessage{Username: name, Text: line, Timestamp: time.Now()})
	if err != nil {
		w.t.opts.Logger.Error().Err(err).Msg("sim: encode chatter")
		return
	}
	w.t.after(delay, payload)
}

func (w *world) handle(payload []byte) {
	intent, err := proto.DecodeIntent(payload)
	if err != nil {
		w.t.opts.Logger.Warn().Err(err).Msg("sim: dropping client payload")
		return
	}

	switch intent.Kind {
	case core.IntentJoin:
		w.self = intent.Username
		out, err := proto.EncodeUserJoined(intent.Username, w.roster())
		if err != nil {
			w.t.opts.Logger.Error().Err(err).Msg("sim: encode roster")
			return
		}
		w.t.after(0, out)
	case core.IntentSendMessage:
		// Echo own messages back, stamped by the "server".
		out, err := proto.EncodeChatMessage(core.ChatMessage{
			Username:  intent.Username,
			Text:      intent.Text,
			Timestamp: time.Now(),
		})
		if err != nil {
			w.t.opts.Logger.Error().Err(err).Msg("sim: encode echo")
			return
		}
		w.t.after(w.t.opts.EchoDelay, out)
	}
}

func (w *world) emit(h transport.Handler, encode func() ([]byte, error)) {
	payload, err := encode()
	if err != nil {
		w.t.opts.Logger.Error().Err(err).Msg("sim: encode")
		return
	}
	h(transport.Signal{Kind: transport.SignalMessage, Payload: payload})
}

func (w *world) roster() []string {
	users := slices.Clone(w.online)
	if w.self != "" {
		users = append(users, w.self)
	}
	return users
}

// newTicker returns a stopped-forever ticker for non-positive intervals.
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(d)
}
