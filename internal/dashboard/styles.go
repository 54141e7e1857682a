package dashboard

import "github.com/charmbracelet/lipgloss"

// Dashboard color palette
const (
	ColorBorder = lipgloss.Color("#2A2A4A")

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	// Accent colors
	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")
)

// Thresholds for metric severity levels
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginBottom(1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// Connection state styles
	StatePollingStyle    = lipgloss.NewStyle().Foreground(ColorTextSecondary)
	StateConnectingStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	StateRealtimeStyle   = lipgloss.NewStyle().Foreground(ColorHealthy)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorCritical)

	DeprecationStyle = lipgloss.NewStyle().Foreground(ColorWarning)
)

// Connection state indicator characters
const (
	IndicatorPolling  = "◌"
	IndicatorRealtime = "◉"
)

// SeverityStyle returns the style for a utilization percentage.
func SeverityStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= CriticalThreshold:
		return lipgloss.NewStyle().Foreground(ColorCritical)
	case percent >= WarningThreshold:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Foreground(ColorHealthy)
	}
}
