package core

import "slices"

// Reducer applies inbound events to client state.
//
// HistoryLimit caps the number of retained messages; the oldest are dropped
// first. Zero keeps every message.
//
// Every Message event copies the retained log so earlier snapshots stay
// valid. The cost per event is O(retained messages): without a limit, a
// session that sees n messages does O(n²) copying in total. Long-running
// consumers should set a limit.
type Reducer struct {
	HistoryLimit int
}

// Reduce applies ev to state with no history limit.
func Reduce(state ClientState, ev Event) ClientState {
	return Reducer{}.Apply(state, ev)
}

// Apply returns the state that follows state after ev. It never modifies the
// slices of state, so earlier snapshots stay valid.
func (r Reducer) Apply(state ClientState, ev Event) ClientState {
	switch ev.Kind {
	case EventMessage:
		// Clip forces append to copy, keeping the previous snapshot intact.
		msgs := append(slices.Clip(state.Messages), ev.Message())
		if r.HistoryLimit > 0 && len(msgs) > r.HistoryLimit {
			msgs = msgs[len(msgs)-r.HistoryLimit:]
		}
		state.Messages = msgs
		state.Received++
	case EventUserJoined, EventUserLeft:
		// The server sends the whole roster, never a delta.
		roster := slices.Clone(ev.Users)
		if roster == nil {
			roster = []string{}
		}
		state.Roster = roster
	}
	return state
}
