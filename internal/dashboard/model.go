// Package dashboard is the Bubble Tea live view over the sync scheduler:
// service readiness and entity counts, utilization and network-rate
// sparklines, and pending deprecation notices.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pinctl/pinctl/internal/notices"
	"github.com/pinctl/pinctl/internal/series"
	"github.com/pinctl/pinctl/internal/syncer"
)

// Key bindings as constants for consistency.
const (
	KeyQuit         = "q"
	KeyQuitAlt      = "ctrl+c"
	KeyRefresh      = "r"
	KeyRealtime     = "t"
	KeyDismiss      = "d"
	KeyToggleHelp   = "?"
	KeyCloseOverlay = "esc"
)

// refreshInterval is the render cadence. State changes made by the
// scheduler between ticks show up on the next frame.
const refreshInterval = time.Second

// Model is the Bubble Tea model for the live dashboard.
type Model struct {
	ctx     context.Context
	syncer  *syncer.Syncer
	series  *series.Store
	notices *notices.Aggregator

	width  int
	height int

	spinner  spinner.Model
	showHelp bool
	quitting bool
}

// tickMsg signals a periodic re-render.
type tickMsg time.Time

// refreshDoneMsg signals that a manually triggered poll round finished.
type refreshDoneMsg struct{}

// NewModel creates the dashboard model. The scheduler, series store, and
// notice aggregator are shared with the background sync goroutine.
func NewModel(ctx context.Context, s *syncer.Syncer, store *series.Store, agg *notices.Aggregator) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(ColorWarning)

	return Model{
		ctx:     ctx,
		syncer:  s,
		series:  store,
		notices: agg,
		spinner: sp,
	}
}

// Init starts the render timer and the spinner animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshDoneMsg:
		// Nothing to fold in: the scheduler already updated shared state.
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

// HandleKeyMsg processes keyboard input.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCloseOverlay {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.refreshCmd()

	case KeyRealtime:
		if m.syncer.RealtimeWanted() {
			m.syncer.DisableRealtime()
		} else {
			m.syncer.EnableRealtime(m.ctx)
		}
		return true, nil

	case KeyDismiss:
		m.notices.DismissAll()
		return true, nil
	}

	return false, nil
}

// tickCmd returns a command that sends a tick after the render interval.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshCmd runs one poll round out of cadence.
func (m Model) refreshCmd() tea.Cmd {
	ctx := m.ctx
	s := m.syncer
	return func() tea.Msg {
		roundCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s.PollOnce(roundCtx)
		return refreshDoneMsg{}
	}
}

// ConnectingSpinner returns the current spinner frame for the connecting
// animation.
func (m Model) ConnectingSpinner() string {
	return m.spinner.View()
}
