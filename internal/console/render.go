// Package console turns client state changes into terminal lines.
package console

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Renderer prints what changed between consecutive snapshots.
type Renderer struct {
	out  io.Writer
	prev core.ClientState
}

// NewRenderer writes to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render prints the difference between the last rendered state and st.
func (r *Renderer) Render(st core.ClientState) {
	for _, line := range Diff(r.prev, st) {
		fmt.Fprintln(r.out, line)
	}
	r.prev = st
}

// Diff returns the lines describing the change from prev to next.
func Diff(prev, next core.ClientState) []string {
	var lines []string

	if prev.Connection != next.Connection {
		lines = append(lines, statusLine(next.Connection))
	}

	if fresh := next.Received - prev.Received; fresh > 0 {
		start := max(len(next.Messages)-fresh, 0)
		for _, m := range next.Messages[start:] {
			lines = append(lines, MessageLine(m, next.Identity.Username))
		}
	}

	if !slices.Equal(prev.Roster, next.Roster) && next.Roster != nil {
		lines = append(lines, RosterLine(next.Roster, next.Identity.Username))
	}
	return lines
}

func statusLine(st core.ConnectionState) string {
	switch st {
	case core.Connecting:
		return "* connecting..."
	case core.Connected:
		return "* connected"
	case core.Errored:
		return "* connection error (type /reconnect)"
	default:
		return "* disconnected (type /reconnect)"
	}
}

// MessageLine formats one chat message; own messages are marked.
func MessageLine(m core.ChatMessage, self string) string {
	who := m.Username
	if who == self {
		who += " (you)"
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Local().Format("15:04"), who, m.Text)
}

// RosterLine lists online users, marking the local user.
func RosterLine(roster []string, self string) string {
	names := make([]string, 0, len(roster))
	for _, u := range roster {
		if u == self {
			u += " (you)"
		}
		names = append(names, u)
	}
	return fmt.Sprintf("* online (%d): %s", len(roster), strings.Join(names, ", "))
}
