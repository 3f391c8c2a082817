// Package output provides styled terminal output helpers for the CLI using
// lipgloss.
package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/storeconf/internal/engine"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[engine.Status]lipgloss.Style{
		engine.StatusIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		engine.StatusSyncing: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		engine.StatusQueued:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		engine.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Title renders a bold heading.
func Title(s string) string { return titleStyle.Render(s) }

// Subtle renders dimmed detail text.
func Subtle(s string) string { return subtleStyle.Render(s) }

// Success renders a green confirmation line.
func Success(format string, args ...any) string {
	return successStyle.Render("✓ " + fmt.Sprintf(format, args...))
}

// Error renders a red failure line.
func Error(format string, args ...any) string {
	return errorStyle.Render("✗ " + fmt.Sprintf(format, args...))
}

// Warning renders an amber caution line.
func Warning(format string, args ...any) string {
	return warningStyle.Render("! " + fmt.Sprintf(format, args...))
}

// Status renders a sync status in its color.
func Status(s engine.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(s.String())
	}
	return s.String()
}
