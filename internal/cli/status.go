package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pinctl/pinctl/internal/api"
)

// StatusOutput is the JSON shape of the status command.
type StatusOutput struct {
	Server       string                  `json:"server"`
	Initialized  bool                    `json:"initialized"`
	Operations   int                     `json:"operations"`
	Counts       map[string]int          `json:"counts,omitempty"`
	Deprecations []api.DeprecationNotice `json:"deprecations,omitempty"`
}

// statusCmd reports service readiness, entity counts, and deprecations.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service readiness and entity counts",
	Long: `Display a one-shot summary of the service:

  - Readiness (initialized or not)
  - Number of exposed operations
  - Entity counts (backends, buckets, pins)
  - Deprecated endpoints still in use

Examples:
  pinctl status
  pinctl status --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusCommand() error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	snap, err := client.FetchStatus(ctx)
	if err != nil {
		return err
	}

	// Deprecations are advisory: a fetch failure does not fail the command.
	deps, err := client.FetchDeprecations(ctx)
	if err != nil {
		deps = nil
	}

	out := StatusOutput{
		Server:       client.BaseURL(),
		Initialized:  snap.Initialized,
		Operations:   len(snap.Tools),
		Counts:       snap.Counts,
		Deprecations: deps,
	}

	if machineMode {
		return WriteJSONSuccess(os.Stdout, out)
	}
	renderStatus(os.Stdout, out)
	return nil
}

func renderStatus(w io.Writer, out StatusOutput) {
	label := lipgloss.NewStyle().Faint(true)
	good := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	fmt.Fprintln(w, label.Render("server:  ")+out.Server)
	if out.Initialized {
		fmt.Fprintln(w, label.Render("service: ")+good.Render("ready"))
	} else {
		fmt.Fprintln(w, label.Render("service: ")+bad.Render("initializing"))
	}
	fmt.Fprintf(w, "%s%d\n", label.Render("ops:     "), out.Operations)

	if len(out.Counts) > 0 {
		names := make([]string, 0, len(out.Counts))
		for name := range out.Counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s%d\n", label.Render(fmt.Sprintf("%-9s", name+":")), out.Counts[name])
		}
	}

	if len(out.Deprecations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warn.Render(fmt.Sprintf("⚠ %d deprecated endpoint(s) in use:", len(out.Deprecations))))
		for _, d := range out.Deprecations {
			line := "  " + d.Endpoint
			if d.RemoveInVersion != "" {
				line += fmt.Sprintf(" (removed in %s)", d.RemoveInVersion)
			}
			if d.HitCount > 0 {
				line += fmt.Sprintf(", %d hits", d.HitCount)
			}
			fmt.Fprintln(w, line)
			hints := make([]string, 0, len(d.MigrationHints))
			for old := range d.MigrationHints {
				hints = append(hints, old)
			}
			sort.Strings(hints)
			for _, old := range hints {
				fmt.Fprintf(w, "    %s -> %s\n", old, d.MigrationHints[old])
			}
		}
	}
}
