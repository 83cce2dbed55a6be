// Package tui is the interactive dashboard shown by `echoload run --tui`.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"echoload/internal/report"
	"echoload/internal/runner"
	"echoload/internal/tui/live"
	"echoload/internal/tui/result"
	"echoload/internal/tui/styles"
)

// RunDoneMsg is sent once Runner.Run has returned.
type RunDoneMsg struct {
	Err error
}

type Model struct {
	Runner  *runner.Runner
	Updates runner.StatsUpdateChan
	Cancel  context.CancelFunc

	// Timeline, when set, receives every snapshot the dashboard sees.
	Timeline *report.Timeline

	Live   live.Model
	Result result.Model

	Finished bool
	Stopping bool
	Err      error

	Width  int
	Height int
}

// NewModel builds the dashboard. cancel stops the run when the user quits
// early; Updates must be the channel the runner was built with.
func NewModel(r *runner.Runner, cancel context.CancelFunc) Model {
	return Model{
		Runner:  r,
		Updates: r.Updates,
		Cancel:  cancel,
		Live:    live.NewModel(r.Cfg.RunTime),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.Updates)
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.Finished {
				return m, tea.Quit
			}
			m.Stopping = true
			if m.Cancel != nil {
				m.Cancel()
			}
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		m.Result, _ = m.Result.Update(msg)
		return m, cmd

	case runner.StatsSnapshot:
		if m.Timeline != nil {
			m.Timeline.Add(msg)
		}
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		if msg.Done || m.Finished {
			return m, cmd
		}
		return m, tea.Batch(cmd, waitForUpdate(m.Updates))

	case RunDoneMsg:
		m.Finished = true
		m.Err = msg.Err
		m.Live, _ = m.Live.Update(m.Runner.Snapshot())
		m.Result = result.NewModel(report.NewSummary(m.Runner))
		m.Result.Width, m.Result.Height = m.Width, m.Height
		if m.Stopping {
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.Live, cmd = m.Live.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	s := strings.Builder{}

	s.WriteString(styles.Title.Render("echoload  " + m.Runner.Scenario.Name + " -> " + m.Runner.Cfg.Host))
	s.WriteString("\n\n")

	switch {
	case m.Finished && m.Err != nil:
		s.WriteString(styles.Error.Render("run failed: " + m.Err.Error()))
		s.WriteString("\n\n")
		s.WriteString(styles.RenderKey("q", "quit"))
	case m.Finished:
		s.WriteString(m.Result.View())
	default:
		s.WriteString(m.Live.View())
		s.WriteString("\n\n")
		if m.Stopping {
			s.WriteString(styles.Warn.Render("stopping, waiting for users to finish..."))
		} else {
			s.WriteString(styles.RenderKey("q", "stop"))
		}
	}
	s.WriteString("\n")
	return s.String()
}
