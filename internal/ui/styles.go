// Package ui renders terminal output for the fg CLI.
package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorActive   = 114 // green
	colorComplete = 108 // sage
	colorBlocked  = 173 // orange
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// State names a node's display state.
type State string

const (
	StateComplete State = "complete"
	StateActive   State = "active"
	StateBlocked  State = "blocked"
)

// NodeState derives the display state from a node's flags. Completion wins
// over activation.
func NodeState(complete, active bool) State {
	switch {
	case complete:
		return StateComplete
	case active:
		return StateActive
	default:
		return StateBlocked
	}
}

// Icon returns a single-character marker for st.
func (st State) Icon() string {
	switch st {
	case StateComplete:
		return "✓"
	case StateActive:
		return "●"
	default:
		return "○"
	}
}

// RenderState returns text colored for st.
func RenderState(st State, text string) string {
	switch st {
	case StateComplete:
		return render(colorComplete, text)
	case StateActive:
		return render(colorActive, text)
	default:
		return render(colorBlocked, text)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// EnableColor turns color output back on. Used by tests.
func EnableColor() {
	noColor = false
}
