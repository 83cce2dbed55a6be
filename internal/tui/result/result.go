package result

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"echoload/internal/report"
	"echoload/internal/tui/styles"
)

const maxErrorRows = 8

type Model struct {
	Summary report.Summary

	Width  int
	Height int
}

func NewModel(s report.Summary) Model {
	return Model{Summary: s}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	sum := m.Summary
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("Run Complete: " + sum.Scenario))
	s.WriteString("\n\n")

	overview := fmt.Sprintf(
		"Duration:    %s\nRequests:    %d\nSuccess:     %d\nFailed:      %s\nTask errors: %d\nRPS:         %.2f",
		sum.Duration().Round(time.Millisecond), sum.Requests, sum.Success,
		styles.ForErrorRate(sum.ErrorRate).Render(fmt.Sprintf("%d (%.2f%%)", sum.Failures, sum.ErrorRate)),
		sum.TaskErrors, sum.RPS,
	)
	lat := sum.Latency
	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP90: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		lat.AvgMs, lat.P50Ms, lat.P90Ms, lat.P99Ms, lat.MaxMs,
	)
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(overview),
		styles.Box.Render(latency),
		styles.Box.Render(statusTable(sum.Statuses)),
	))
	s.WriteString("\n")

	if len(sum.Errors) > 0 {
		var rows []string
		for i, e := range sum.Errors {
			if i == maxErrorRows {
				rows = append(rows, styles.Subtle.Render(fmt.Sprintf("... %d more", len(sum.Errors)-i)))
				break
			}
			rows = append(rows, fmt.Sprintf("%6d x %s %s", e.Occurrences, e.Source, e.Message))
		}
		s.WriteString(styles.Box.Render(styles.Error.Render("Failures") + "\n" + strings.Join(rows, "\n")))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(styles.RenderKey("q", "quit"))
	return s.String()
}

func statusTable(statuses map[int]uint64) string {
	if len(statuses) == 0 {
		return styles.Subtle.Render("no responses")
	}
	codes := make([]int, 0, len(statuses))
	for c := range statuses {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	lines := []string{"Status codes"}
	for _, c := range codes {
		label := fmt.Sprintf("%d", c)
		if c == 0 {
			label = "err"
		}
		lines = append(lines, styles.ForStatus(c).Render(fmt.Sprintf("%4s: %d", label, statuses[c])))
	}
	return strings.Join(lines, "\n")
}
