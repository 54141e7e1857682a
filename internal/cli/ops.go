package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/catalog"
	"github.com/pinctl/pinctl/internal/schema"
)

var opsNameStyle = lipgloss.NewStyle().Bold(true)
var opsDescStyle = lipgloss.NewStyle().Faint(true)

// opsCmd lists the operations the service currently exposes.
var opsCmd = &cobra.Command{
	Use:   "ops [filter]",
	Short: "List operations exposed by the service",
	Long: `List the operations the service currently exposes, with their
descriptions and argument summaries.

An optional filter narrows the list by case-insensitive substring match
on the operation name.

Examples:
  pinctl ops
  pinctl ops backend
  pinctl ops --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		return opsCommand(filter)
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
}

func opsCommand(filter string) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	cache := catalog.NewCache(client)
	if err := cache.Reload(ctx); err != nil {
		return err
	}

	ops := cache.Filter(filter)

	if machineMode {
		return WriteJSONSuccess(os.Stdout, ops)
	}

	if len(ops) == 0 {
		if filter != "" {
			fmt.Printf("No operations match %q.\n", filter)
		} else {
			fmt.Println("The service exposes no operations.")
		}
		return nil
	}

	for _, op := range ops {
		fmt.Println(opsNameStyle.Render(op.Name) + argSummary(op))
		if op.Description != "" {
			fmt.Println("  " + opsDescStyle.Render(op.Description))
		}
	}
	fmt.Printf("\n%d operation(s)\n", len(ops))
	return nil
}

// argSummary renders a short signature like " (name, size?)" from the
// operation's schema. Schemas that fail to normalize render as opaque.
func argSummary(op api.Operation) string {
	s, err := schema.Normalize(op.InputSchema)
	if err != nil || !s.HasFields() {
		return ""
	}

	out := " ("
	for i, f := range s.Fields {
		if i > 0 {
			out += ", "
		}
		out += f.Name
		if !f.Required {
			out += "?"
		}
	}
	return out + ")"
}
