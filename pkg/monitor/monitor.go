// Package monitor is a live terminal view of the sync engine: current
// status, last sync time, and the pending operation queue. It only reads
// engine state, never mutates it.
package monitor

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/storeconf/internal/engine"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
)

type tickMsg time.Time

// Model is the bubbletea model for the watch view.
type Model struct {
	engine  *engine.Engine
	spinner spinner.Model
	table   table.Model
}

// New builds the watch model around an engine.
func New(e *engine.Engine) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Method", Width: 8},
			{Title: "URL", Width: 40},
			{Title: "ID", Width: 36},
		}),
		table.WithHeight(10),
	)

	m := Model{engine: e, spinner: sp, table: tbl}
	m.refresh()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the spinner and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

// Update handles ticks, key presses, and spinner frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the status header and queue table.
func (m Model) View() string {
	status := m.engine.Status()
	line := "state: " + status.String()
	if status == engine.StatusSyncing {
		line = m.spinner.View() + " " + line
	}
	if last := m.engine.LastSyncedAt(); !last.IsZero() {
		line += fmt.Sprintf("   last synced %s", last.Format("15:04:05"))
	}
	line += fmt.Sprintf("   pending %d", m.engine.Queue().Len())

	return titleStyle.Render("storeconf watch") + "\n" +
		statusStyle.Render(line) + "\n\n" +
		m.table.View() + "\n" +
		helpStyle.Render("q to quit")
}

func (m *Model) refresh() {
	recs := m.engine.Queue().Records()
	rows := make([]table.Row, len(recs))
	for i, rec := range recs {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			rec.Operation.Method,
			rec.Operation.URL,
			rec.ID,
		}
	}
	m.table.SetRows(rows)
}

// Run starts the watch view and blocks until the user quits.
func Run(e *engine.Engine) error {
	_, err := tea.NewProgram(New(e), tea.WithAltScreen()).Run()
	return err
}
