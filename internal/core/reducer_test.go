package core

import (
	"slices"
	"testing"
	"time"
)

func msgEvent(user, text string, ts time.Time) Event {
	return Event{Kind: EventMessage, Username: user, Text: text, Timestamp: ts}
}

func TestReduceMessageAppends(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	state := Reduce(ClientState{Connection: Connected}, msgEvent("Bob", "hi", ts))

	want := []ChatMessage{{Username: "Bob", Text: "hi", Timestamp: ts}}
	if !slices.Equal(state.Messages, want) {
		t.Fatalf("unexpected messages: %+v", state.Messages)
	}
	if state.Received != 1 {
		t.Fatalf("expected received=1, got %d", state.Received)
	}
	if state.Connection != Connected {
		t.Fatalf("connection state changed: %v", state.Connection)
	}
}

func TestReduceMessageCountMatchesEvents(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64} {
		var state ClientState
		for i := range n {
			state = Reduce(state, msgEvent("u", string(rune('a'+i%26)), time.Unix(int64(i), 0)))
			// Roster updates in between must not touch the log.
			state = Reduce(state, Event{Kind: EventUserJoined, Users: []string{"u"}})
		}
		if len(state.Messages) != n {
			t.Fatalf("n=%d: got %d messages", n, len(state.Messages))
		}
		for i, m := range state.Messages {
			if !m.Timestamp.Equal(time.Unix(int64(i), 0)) {
				t.Fatalf("n=%d: message %d out of arrival order", n, i)
			}
		}
	}
}

func TestReduceDuplicateMessagesKept(t *testing.T) {
	ev := msgEvent("Bob", "hi", time.Unix(10, 0))
	state := Reduce(Reduce(ClientState{}, ev), ev)
	if len(state.Messages) != 2 {
		t.Fatalf("expected duplicate delivery to appear twice, got %d", len(state.Messages))
	}
}

func TestReduceRosterReplaces(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   []string
	}{
		{
			name:   "join sets roster",
			events: []Event{{Kind: EventUserJoined, Username: "alice", Users: []string{"alice"}}},
			want:   []string{"alice"},
		},
		{
			name: "latest snapshot wins",
			events: []Event{
				{Kind: EventUserJoined, Username: "bob", Users: []string{"alice", "bob"}},
				{Kind: EventUserJoined, Username: "carol", Users: []string{"carol"}},
			},
			want: []string{"carol"},
		},
		{
			name: "leave replaces, no merge",
			events: []Event{
				{Kind: EventUserJoined, Username: "bob", Users: []string{"alice", "bob", "carol"}},
				{Kind: EventUserLeft, Username: "bob", Users: []string{"carol", "alice"}},
			},
			want: []string{"carol", "alice"},
		},
		{
			name: "missing users empties roster",
			events: []Event{
				{Kind: EventUserJoined, Username: "bob", Users: []string{"bob"}},
				{Kind: EventUserLeft, Username: "bob"},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var state ClientState
			for _, ev := range tt.events {
				state = Reduce(state, ev)
			}
			if !slices.Equal(state.Roster, tt.want) {
				t.Fatalf("expected roster %v, got %v", tt.want, state.Roster)
			}
			if state.Roster == nil {
				t.Fatalf("roster must be non-nil after a roster event")
			}
		})
	}
}

func TestReduceNoopUnchanged(t *testing.T) {
	before := ClientState{
		Connection: Connected,
		Messages:   []ChatMessage{{Username: "a", Text: "x"}},
		Roster:     []string{"a"},
		Identity:   Identity{Username: "a"},
		Received:   1,
	}
	after := Reduce(before, Event{Kind: EventNoop, Tag: "typing"})

	if !slices.Equal(after.Messages, before.Messages) || !slices.Equal(after.Roster, before.Roster) ||
		after.Connection != before.Connection || after.Identity != before.Identity || after.Received != before.Received {
		t.Fatalf("noop changed state: %+v", after)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	base := ClientState{Messages: make([]ChatMessage, 1, 8)}
	base.Messages[0] = ChatMessage{Username: "a", Text: "first"}

	left := Reduce(base, msgEvent("b", "left", time.Time{}))
	right := Reduce(base, msgEvent("c", "right", time.Time{}))

	if len(base.Messages) != 1 {
		t.Fatalf("input state was modified: %+v", base.Messages)
	}
	if left.Messages[1].Text != "left" || right.Messages[1].Text != "right" {
		t.Fatalf("successor states share storage: left=%+v right=%+v", left.Messages, right.Messages)
	}

	users := []string{"a", "b"}
	state := Reduce(ClientState{}, Event{Kind: EventUserJoined, Users: users})
	users[0] = "mallory"
	if state.Roster[0] != "a" {
		t.Fatalf("roster aliases event slice: %v", state.Roster)
	}
}

func TestReducerHistoryLimit(t *testing.T) {
	r := Reducer{HistoryLimit: 3}

	var state ClientState
	for i := range 5 {
		state = r.Apply(state, msgEvent("u", string(rune('a'+i)), time.Unix(int64(i), 0)))
	}

	if len(state.Messages) != 3 {
		t.Fatalf("expected 3 retained messages, got %d", len(state.Messages))
	}
	if state.Messages[0].Text != "c" || state.Messages[2].Text != "e" {
		t.Fatalf("expected newest messages kept, got %+v", state.Messages)
	}
	if state.Received != 5 {
		t.Fatalf("expected received=5, got %d", state.Received)
	}
}

func TestReducerHistoryLimitKeepsEarlierSnapshots(t *testing.T) {
	r := Reducer{HistoryLimit: 2}

	var state ClientState
	state = r.Apply(state, msgEvent("u", "a", time.Time{}))
	state = r.Apply(state, msgEvent("u", "b", time.Time{}))
	snapshot := state

	for _, text := range []string{"c", "d", "e"} {
		state = r.Apply(state, msgEvent("u", text, time.Time{}))
	}
	branch := r.Apply(snapshot, msgEvent("u", "x", time.Time{}))

	if snapshot.Messages[0].Text != "a" || snapshot.Messages[1].Text != "b" {
		t.Fatalf("snapshot modified: %+v", snapshot.Messages)
	}
	if state.Messages[0].Text != "d" || state.Messages[1].Text != "e" {
		t.Fatalf("unexpected capped log: %+v", state.Messages)
	}
	if branch.Messages[0].Text != "b" || branch.Messages[1].Text != "x" {
		t.Fatalf("unexpected branch: %+v", branch.Messages)
	}
}

func TestConnectionStateString(t *testing.T) {
	cases := map[ConnectionState]string{
		Disconnected:        "disconnected",
		Connecting:          "connecting",
		Connected:           "connected",
		Errored:             "error",
		ConnectionState(42): "unknown",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("%d: expected %q, got %q", int(st), want, got)
		}
	}
	if !Connecting.Live() || !Connected.Live() || Disconnected.Live() || Errored.Live() {
		t.Fatalf("unexpected Live() results")
	}
}
