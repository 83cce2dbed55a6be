package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"echoload/internal/runner"
	"echoload/internal/tui/components"
	"echoload/internal/tui/styles"
)

type Model struct {
	Stats    runner.StatsSnapshot
	Progress progress.Model

	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	RunTime     time.Duration // 0 when the run has no time limit
	LastElapsed time.Duration
	LastReqs    uint64

	Width  int
	Height int
}

func NewModel(runTime time.Duration) Model {
	return Model{
		Progress:    progress.New(progress.WithDefaultGradient()),
		RpsLine:     components.NewSparkline(40, "RPS", "", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90", "ms", styles.Warn),
		RunTime:     runTime,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Percent is the run-time progress in [0, 1]; always 0 without a run time.
func (m Model) Percent() float64 {
	if m.RunTime <= 0 {
		return 0
	}
	return min(1.0, float64(m.Stats.Elapsed)/float64(m.RunTime))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.StatsSnapshot:
		dt := (msg.Elapsed - m.LastElapsed).Seconds()
		if dt > 0 && msg.Requests >= m.LastReqs {
			m.RpsLine.Add(float64(msg.Requests-m.LastReqs) / dt)
			m.LatencyLine.Add(msg.P90Ms)
			m.LastElapsed = msg.Elapsed
			m.LastReqs = msg.Requests
		}
		m.Stats = msg

		if m.RunTime <= 0 {
			return m, nil
		}
		return m, m.Progress.SetPercent(m.Percent())

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(10, msg.Width-4)

		half := max(10, msg.Width/2-8)
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	reqs := m.Stats.Requests
	errRate := 0.0
	if reqs > 0 {
		errRate = float64(m.Stats.Fail) / float64(reqs) * 100
	}

	col1 := fmt.Sprintf("USERS: %d\nREQ:   %d\nINF:   %d", m.Stats.Users, reqs, m.Stats.Inflight)
	col2 := styles.ForErrorRate(errRate).Render(
		fmt.Sprintf("ERR:  %.2f%%\nFAIL: %d\nTASK: %d", errRate, m.Stats.Fail, m.Stats.TaskErrors),
	)
	col3 := fmt.Sprintf("OK:    %d\nKB:    %d\nTIME:  %s", m.Stats.Success, m.Stats.Bytes/1024, m.Stats.Elapsed.Round(time.Second))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.MaxMs,
	)
	s.WriteString(styles.Box.Render(latencies))
	s.WriteString("\n\n")

	if m.RunTime > 0 {
		s.WriteString(m.Progress.View())
		s.WriteString(styles.Subtle.Render(fmt.Sprintf("  %s / %s", m.Stats.Elapsed.Round(time.Second), m.RunTime)))
	} else {
		s.WriteString(styles.Subtle.Render("no run time limit, running until stopped or iterations exhausted"))
	}

	return s.String()
}
