package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconDone    = "✓"
	IconPending = "✗"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
)

// Theme holds the styles for one output. Styles are bound to a renderer for
// that writer, so plain writers (files, pipes, test buffers) get no escape
// codes.
type Theme struct {
	Title lipgloss.Style
	Key   lipgloss.Style
	Good  lipgloss.Style
	Warn  lipgloss.Style
	Bad   lipgloss.Style
	Muted lipgloss.Style
}

func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Title: r.NewStyle().Bold(true).Foreground(cPrimary),
		Key:   r.NewStyle().Bold(true),
		Good:  r.NewStyle().Bold(true).Foreground(cGood),
		Warn:  r.NewStyle().Foreground(cWarn),
		Bad:   r.NewStyle().Bold(true).Foreground(cBad),
		Muted: r.NewStyle().Foreground(cMuted),
	}
}

// StatusMark renders ✓ for completed tasks and ✗ for pending ones.
func (t Theme) StatusMark(completed bool) string {
	if completed {
		return t.Good.Render(IconDone)
	}
	return t.Bad.Render(IconPending)
}
