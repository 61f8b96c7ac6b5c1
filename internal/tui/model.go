package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// CheckStatus represents the current state of a check in the display.
// Values mirror harness.Status plus the display-only pending and running
// states, keeping the tui package decoupled from harness.
type CheckStatus string

const (
	StatusPending CheckStatus = "pending"
	StatusRunning CheckStatus = "running"
	StatusPassed  CheckStatus = "passed"
	StatusFailed  CheckStatus = "failed"
	StatusSkipped CheckStatus = "skipped"
	StatusAborted CheckStatus = "aborted"
)

// finished reports whether the status is terminal.
func (s CheckStatus) finished() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusSkipped, StatusAborted:
		return true
	}
	return false
}

// CheckState tracks the display state of a single check.
type CheckState struct {
	ID       string
	Name     string
	Status   CheckStatus
	Duration time.Duration
	Reason   string
	Errors   []string
}

// Model is the Bubble Tea model for check status display.
type Model struct {
	checks     []CheckState
	spinner    spinner.Model
	help       help.Model
	quit       key.Binding
	width      int
	done       bool
	aborting   bool
	err        error
	cancelFunc context.CancelFunc
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithCancelFunc sets the function called on the first abort keypress.
// Without it, q and ctrl+c quit immediately.
func WithCancelFunc(cancel context.CancelFunc) ModelOption {
	return func(m *Model) { m.cancelFunc = cancel }
}

// StatusUpdateMsg bridges harness progress to the TUI.
type StatusUpdateMsg struct {
	ID       string // Slash-separated check ID.
	Name     string // Display name; empty keeps the current one.
	Status   CheckStatus
	Duration time.Duration
	Reason   string
	Errors   []string
}

// RunDoneMsg signals that the run completed.
type RunDoneMsg struct{}

// RunErrorMsg signals that the run ended with an error.
type RunErrorMsg struct {
	Err error
}

// NewModel creates a Model with the given check IDs listed as pending.
// Checks first seen in a StatusUpdateMsg are appended.
func NewModel(checkIDs []string, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	checks := make([]CheckState, len(checkIDs))
	for i, id := range checkIDs {
		checks[i] = CheckState{ID: id, Name: id, Status: StatusPending}
	}

	m := Model{
		checks:  checks,
		spinner: s,
		help:    help.New(),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "abort"),
		),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusUpdateMsg:
		m.apply(msg)
		return m, nil

	case RunDoneMsg:
		m.done = true
		m.aborting = false
		return m, tea.Quit

	case RunErrorMsg:
		m.done = true
		m.aborting = false
		m.err = msg.Err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			if m.done {
				return m, nil
			}
			if m.cancelFunc == nil || m.aborting {
				m.done = true
				return m, tea.Quit
			}
			m.aborting = true
			m.cancelFunc()
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) apply(msg StatusUpdateMsg) {
	for i := range m.checks {
		if m.checks[i].ID != msg.ID {
			continue
		}
		c := &m.checks[i]
		c.Status = msg.Status
		if msg.Name != "" {
			c.Name = msg.Name
		}
		if msg.Duration > 0 {
			c.Duration = msg.Duration
		}
		if msg.Reason != "" {
			c.Reason = msg.Reason
		}
		if len(msg.Errors) > 0 {
			c.Errors = msg.Errors
		}
		return
	}
	name := msg.Name
	if name == "" {
		name = msg.ID
	}
	m.checks = append(m.checks, CheckState{
		ID:       msg.ID,
		Name:     name,
		Status:   msg.Status,
		Duration: msg.Duration,
		Reason:   msg.Reason,
		Errors:   msg.Errors,
	})
}

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	abortStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	detailStyle = lipgloss.NewStyle().Faint(true)
	footerStyle = lipgloss.NewStyle().Bold(true)
)

// View renders the check list with status indicators.
func (m Model) View() string {
	var b strings.Builder

	for _, c := range m.checks {
		line := fmt.Sprintf("  %s %s", statusIndicator(c.Status, m.spinner.View()), c.Name)
		if c.Duration > 0 {
			line += fmt.Sprintf(" %.1fs", c.Duration.Seconds())
		}
		b.WriteString(m.truncate(line) + "\n")

		switch c.Status {
		case StatusSkipped, StatusAborted:
			if c.Reason != "" {
				b.WriteString(m.truncate(detailStyle.Render("      "+c.Reason)) + "\n")
			}
		case StatusFailed:
			for _, e := range c.Errors {
				first, _, _ := strings.Cut(strings.TrimSpace(e), "\n")
				b.WriteString(m.truncate(failStyle.Render("      "+first)) + "\n")
			}
		}
	}

	if m.aborting && !m.done {
		b.WriteString("\n" + abortStyle.Render("  Aborting... (press q again to force quit)") + "\n")
	} else if !m.done {
		b.WriteString("\n  " + m.help.ShortHelpView([]key.Binding{m.quit}) + "\n")
	}

	if m.done {
		b.WriteString("\n" + m.footer() + "\n")
		if m.err != nil {
			b.WriteString(failStyle.Render(fmt.Sprintf("  Error: %s", m.err)) + "\n")
		}
	}

	return b.String()
}

func (m Model) footer() string {
	var total time.Duration
	counts := make(map[CheckStatus]int)
	for _, c := range m.checks {
		counts[c.Status]++
		total += c.Duration
	}
	s := fmt.Sprintf("  %d/%d passed", counts[StatusPassed], len(m.checks))
	for _, st := range []CheckStatus{StatusFailed, StatusSkipped, StatusAborted} {
		if counts[st] > 0 {
			s += fmt.Sprintf(", %d %s", counts[st], st)
		}
	}
	s += fmt.Sprintf(" in %.1fs", total.Seconds())
	return footerStyle.Render(s)
}

// truncate clips a line to the terminal width once it is known.
func (m Model) truncate(line string) string {
	if m.width <= 0 || lipgloss.Width(line) <= m.width {
		return line
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

// statusIndicator returns the styled Unicode indicator for a check status.
func statusIndicator(status CheckStatus, spinnerView string) string {
	switch status {
	case StatusPending:
		return "○"
	case StatusRunning:
		return spinnerView
	case StatusPassed:
		return passStyle.Render("✓")
	case StatusFailed:
		return failStyle.Render("✗")
	case StatusSkipped:
		return skipStyle.Render("–")
	case StatusAborted:
		return abortStyle.Render("!")
	default:
		return "?"
	}
}
