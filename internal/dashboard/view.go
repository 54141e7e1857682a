package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pinctl/pinctl/internal/series"
	"github.com/pinctl/pinctl/internal/syncer"
	"github.com/pinctl/pinctl/internal/ui"
)

// sparklineWidth is how many recent samples a graph row displays.
const sparklineWidth = 40

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusPanel())
	b.WriteString("\n")
	b.WriteString(m.renderUtilizationPanel())
	b.WriteString("\n")
	b.WriteString(m.renderNetworkPanel())

	if m.notices.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderNoticesPanel())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with the connection state.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("pinctl dashboard")

	var state string
	switch m.syncer.State() {
	case syncer.RealtimeConnected:
		state = StateRealtimeStyle.Render(IndicatorRealtime + " realtime")
	case syncer.RealtimeConnecting:
		state = StateConnectingStyle.Render(m.ConnectingSpinner() + " connecting")
	default:
		state = StatePollingStyle.Render(IndicatorPolling + " polling")
	}

	line := title + MutedStyle.Render(" | ") + state

	if err := m.syncer.LastError(); err != nil {
		line += MutedStyle.Render(" | ") + ErrorStyle.Render("sync error (showing stale data)")
	}

	return HeaderStyle.Render(line)
}

// renderStatusPanel renders service readiness and entity counts.
func (m Model) renderStatusPanel() string {
	snap := m.syncer.Snapshot()
	if snap == nil {
		return PanelStyle.Render(MutedStyle.Render("waiting for first status..."))
	}

	var b strings.Builder

	readiness := ErrorStyle.Render("initializing")
	if snap.Initialized {
		readiness = StateRealtimeStyle.Render("ready")
	}
	b.WriteString(LabelStyle.Render("service  ") + readiness)
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("ops      ") + ValueStyle.Render(fmt.Sprintf("%d", len(snap.Tools))))

	if len(snap.Counts) > 0 {
		names := make([]string, 0, len(snap.Counts))
		for name := range snap.Counts {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s %s",
				ValueStyle.Render(fmt.Sprintf("%d", snap.Counts[name])),
				LabelStyle.Render(name)))
		}
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("entities ") + strings.Join(parts, MutedStyle.Render(" | ")))
	}

	return PanelStyle.Render(b.String())
}

// renderUtilizationPanel renders the cpu/memory/disk sparkline rows.
func (m Model) renderUtilizationPanel() string {
	rows := []string{
		m.renderPercentRow("cpu ", series.CPU),
		m.renderPercentRow("mem ", series.Mem),
		m.renderPercentRow("disk", series.Disk),
	}
	return PanelStyle.Render(strings.Join(rows, "\n"))
}

// renderPercentRow renders one utilization series: label, sparkline,
// current value, rolling average.
func (m Model) renderPercentRow(label, name string) string {
	data := m.series.Last(name, sparklineWidth)
	if len(data) == 0 {
		return LabelStyle.Render(label) + "  " + MutedStyle.Render("no samples")
	}

	current := data[len(data)-1]
	avg := m.syncer.Average(name)

	return fmt.Sprintf("%s  %s  %s %s",
		LabelStyle.Render(label),
		ui.RenderSparkline(data, sparklineWidth),
		SeverityStyle(current).Render(fmt.Sprintf("%5.1f%%", current)),
		MutedStyle.Render(fmt.Sprintf("avg %.1f%%", avg)))
}

// renderNetworkPanel renders the rx/tx rate rows.
func (m Model) renderNetworkPanel() string {
	rows := []string{
		m.renderRateRow("rx", series.Rx),
		m.renderRateRow("tx", series.Tx),
	}
	return PanelStyle.Render(strings.Join(rows, "\n"))
}

// renderRateRow renders one network-rate series.
func (m Model) renderRateRow(label, name string) string {
	data := m.series.Last(name, sparklineWidth)
	if len(data) == 0 {
		return LabelStyle.Render(label) + "    " + MutedStyle.Render("no samples")
	}

	current := data[len(data)-1]

	return fmt.Sprintf("%s    %s  %s",
		LabelStyle.Render(label),
		ui.RenderSparkline(data, sparklineWidth),
		ValueStyle.Render(formatRate(current)))
}

// renderNoticesPanel renders the pending deprecation notices.
func (m Model) renderNoticesPanel() string {
	var b strings.Builder

	b.WriteString(DeprecationStyle.Render(fmt.Sprintf("⚠ %d deprecated endpoint(s) in use", m.notices.Len())))
	for _, n := range m.notices.List() {
		b.WriteString("\n")
		line := fmt.Sprintf("  %s", n.Endpoint)
		if n.RemoveInVersion != "" {
			line += fmt.Sprintf("  (removed in %s)", n.RemoveInVersion)
		}
		if n.HitCount > 0 {
			line += fmt.Sprintf("  %d hits", n.HitCount)
		}
		b.WriteString(ValueStyle.Render(line))

		hints := make([]string, 0, len(n.MigrationHints))
		for old := range n.MigrationHints {
			hints = append(hints, old)
		}
		sort.Strings(hints)
		for _, old := range hints {
			b.WriteString("\n")
			b.WriteString(MutedStyle.Render(fmt.Sprintf("    %s -> %s", old, n.MigrationHints[old])))
		}
	}

	return PanelStyle.BorderForeground(ColorWarning).Render(b.String())
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"t realtime",
	}
	if m.notices.Len() > 0 {
		hints = append(hints, "d dismiss")
	}
	hints = append(hints, "? help")

	return FooterStyle.Render(strings.Join(hints, " | "))
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	rows := []struct{ key, desc string }{
		{"q / ctrl+c", "quit"},
		{"r", "run a poll round now"},
		{"t", "toggle the realtime push channel"},
		{"d", "dismiss all deprecation notices"},
		{"?", "toggle this help"},
		{"esc", "close this help"},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("keys"))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s  %s",
			ValueStyle.Render(fmt.Sprintf("%-10s", r.key)),
			LabelStyle.Render(r.desc)))
	}

	return PanelStyle.Render(b.String())
}

// formatRate formats a bytes-per-second rate as a human-readable string.
func formatRate(bytesPerSecond float64) string {
	if bytesPerSecond < 1024 {
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	} else if bytesPerSecond < 1024*1024 {
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/1024)
	} else if bytesPerSecond < 1024*1024*1024 {
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB/s", bytesPerSecond/(1024*1024*1024))
}
