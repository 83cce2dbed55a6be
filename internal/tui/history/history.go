package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"echoload/internal/storage"
	"echoload/internal/tui/styles"
)

// Model is a read-only browser over stored runs.
type Model struct {
	Records []storage.RunRecord
	Table   table.Model

	Width  int
	Height int
}

func NewModel(records []storage.RunRecord) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Scenario", Width: 12},
		{Title: "Host", Width: 28},
		{Title: "Users", Width: 6},
		{Title: "Reqs", Width: 9},
		{Title: "Fail %", Width: 7},
		{Title: "RPS", Width: 8},
		{Title: "P90 ms", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(Rows(records)),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		Records: records,
		Table:   t,
	}
}

// Rows renders records in table order; shared with the plain-text listing.
func Rows(records []storage.RunRecord) []table.Row {
	rows := make([]table.Row, len(records))
	for i, rec := range records {
		sum := rec.Summary
		rows[i] = table.Row{
			rec.Timestamp.Local().Format(time.DateTime),
			sum.Scenario,
			rec.Config.Host,
			fmt.Sprintf("%d", rec.Config.Users),
			fmt.Sprintf("%d", sum.Requests),
			fmt.Sprintf("%.2f", sum.ErrorRate),
			fmt.Sprintf("%.2f", sum.RPS),
			fmt.Sprintf("%.2f", sum.Latency.P90Ms),
		}
	}
	return rows
}

// Selected returns the highlighted record, if any.
func (m Model) Selected() (storage.RunRecord, bool) {
	i := m.Table.Cursor()
	if i < 0 || i >= len(m.Records) {
		return storage.RunRecord{}, false
	}
	return m.Records[i], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		m.Table.SetHeight(max(5, msg.Height-8))
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	s := styles.Title.Render(fmt.Sprintf("Run history (%d)", len(m.Records))) + "\n"
	s += styles.Box.Render(m.Table.View()) + "\n"

	if rec, ok := m.Selected(); ok {
		lat := rec.Summary.Latency
		s += styles.Subtle.Render(fmt.Sprintf(
			"%s  p50 %.2fms  p99 %.2fms  max %.2fms  task errors %d",
			rec.ID, lat.P50Ms, lat.P99Ms, lat.MaxMs, rec.Summary.TaskErrors,
		)) + "\n"
	}
	s += styles.RenderKey("↑/↓", "move") + "  " + styles.RenderKey("q", "quit")
	return s
}
