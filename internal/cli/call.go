package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/catalog"
	"github.com/pinctl/pinctl/internal/errors"
	"github.com/pinctl/pinctl/internal/invoke"
	"github.com/pinctl/pinctl/internal/schema"
)

var (
	callArgFlags []string
	callRawFlag  string
	callYesFlag  bool
)

// callCmd invokes a single operation on the service.
var callCmd = &cobra.Command{
	Use:   "call <operation>",
	Short: "Invoke an operation on the service",
	Long: `Invoke a single operation on the service.

Arguments are collected from the operation's schema. With no --arg or
--raw flags, an interactive form prompts for each field; otherwise the
provided values are validated and sent directly.

Operations without a schema accept a raw JSON object via --raw.

Examples:
  pinctl call create_backend
  pinctl call create_bucket --arg name=media --arg backend=local
  pinctl call delete_pin --arg cid=bafy... --yes
  pinctl call gc_run --raw '{"grace":"1h"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callCommand(args[0])
	},
}

func init() {
	callCmd.Flags().StringArrayVar(&callArgFlags, "arg", nil, "argument as key=value (repeatable)")
	callCmd.Flags().StringVar(&callRawFlag, "raw", "", "raw JSON object for schema-less operations")
	callCmd.Flags().BoolVarP(&callYesFlag, "yes", "y", false, "skip confirmation prompts")
	rootCmd.AddCommand(callCmd)
}

// callOptions carries the call command's flag values.
type callOptions struct {
	Args        []string
	Raw         string
	Yes         bool
	Interactive bool
	MachineMode bool
}

func callCommand(name string) error {
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
	op, ok := cache.Get(name)
	if !ok {
		return errors.New(errors.ErrInvoke,
			fmt.Sprintf("Unknown operation: %s", name),
			"Run 'pinctl ops' to list available operations")
	}

	opts := callOptions{
		Args:        callArgFlags,
		Raw:         callRawFlag,
		Yes:         callYesFlag,
		Interactive: len(callArgFlags) == 0 && callRawFlag == "" && !machineMode,
		MachineMode: machineMode,
	}
	return executeCall(ctx, client, op, opts, os.Stdout)
}

// executeCall builds the invocation form, collects arguments, and submits.
func executeCall(ctx context.Context, inv api.Invoker, op api.Operation, opts callOptions, out io.Writer) error {
	sch, err := schema.Normalize(op.InputSchema)
	if err != nil {
		return err
	}
	form := invoke.NewForm(op.Name, sch)

	if opts.Raw != "" {
		if err := form.SetRaw(opts.Raw); err != nil {
			return err
		}
	}
	for _, pair := range opts.Args {
		key, value, err := parseArgPair(pair)
		if err != nil {
			return err
		}
		if err := form.SetText(key, value); err != nil {
			return err
		}
	}

	if opts.Interactive && sch.HasFields() {
		if err := promptFields(ctx, inv, form); err != nil {
			return err
		}
	}

	confirm := confirmFunc(opts)
	result, err := form.Submit(ctx, inv, confirm)
	if err != nil {
		if err == invoke.ErrDeclined {
			if !opts.Interactive && !opts.Yes {
				return errors.New(errors.ErrValidate,
					"Operation requires confirmation",
					"Pass --yes to confirm non-interactively")
			}
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return err
	}

	return printResult(out, opts.MachineMode, result)
}

// parseArgPair splits a key=value flag value.
func parseArgPair(pair string) (string, string, error) {
	idx := strings.Index(pair, "=")
	if idx <= 0 {
		return "", "", errors.New(errors.ErrValidate,
			fmt.Sprintf("Invalid --arg value: %q", pair),
			"Use --arg key=value")
	}
	return pair[:idx], pair[idx+1:], nil
}

// promptFields runs the interactive form for every schema field, seeding
// each prompt with the current draft value.
func promptFields(ctx context.Context, inv api.Invoker, form *invoke.Form) error {
	resolver := invoke.NewResolver(inv)
	values := make(map[string]*string, len(form.Schema().Fields))
	bools := make(map[string]*bool)

	var groups []*huh.Group
	for _, f := range form.Schema().Fields {
		field := f // capture for validators
		title := field.Name
		if field.Required {
			title += " *"
		}

		if field.Type == schema.TypeBoolean {
			v := new(bool)
			if d, ok := field.Default.(bool); ok {
				*v = d
			}
			bools[field.Name] = v
			groups = append(groups, huh.NewGroup(
				huh.NewConfirm().Title(title).Description(field.Description).Value(v),
			))
			continue
		}

		v := new(string)
		if field.Default != nil {
			*v = fmt.Sprintf("%v", field.Default)
		}
		values[field.Name] = v

		options := field.EnumValues
		if field.DynamicRef != "" {
			resolved, err := resolver.Resolve(ctx, field.DynamicRef)
			if err == nil && len(resolved) > 0 {
				options = resolved
			}
			// Resolution failures degrade to a free-text input.
		}

		var h huh.Field
		switch {
		case len(options) > 0:
			h = huh.NewSelect[string]().
				Title(title).
				Description(field.Description).
				Options(huh.NewOptions(options...)...).
				Value(v)
		case field.Multiline:
			h = huh.NewText().Title(title).Description(field.Description).Value(v)
		default:
			input := huh.NewInput().Title(title).Description(field.Description).Value(v)
			if field.Required {
				input = input.Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("%s is required", field.Name)
					}
					return nil
				})
			}
			h = input
		}
		groups = append(groups, huh.NewGroup(h))
	}

	if len(groups) == 0 {
		return nil
	}
	if err := huh.NewForm(groups...).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrValidate,
			"Form input failed",
			"Use --arg key=value for non-interactive invocation")
	}

	for name, v := range values {
		if *v == "" {
			continue
		}
		if err := form.SetText(name, *v); err != nil {
			return err
		}
	}
	for name, v := range bools {
		if err := form.Set(name, *v); err != nil {
			return err
		}
	}
	return nil
}

// confirmFunc builds the confirmation gate for destructive operations.
// --yes bypasses the prompt; machine mode without --yes declines, since
// there is nobody to ask.
func confirmFunc(opts callOptions) invoke.ConfirmFunc {
	if opts.Yes {
		return func(string) bool { return true }
	}
	if !opts.Interactive {
		return func(string) bool { return false }
	}
	return func(message string) bool {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(message).Value(&confirmed),
		))
		if err := form.Run(); err != nil {
			return false
		}
		return confirmed
	}
}

// printResult writes the operation result: enveloped in machine mode,
// pretty-printed JSON otherwise.
func printResult(out io.Writer, machine bool, result json.RawMessage) error {
	if machine {
		return WriteJSONSuccess(out, result)
	}

	var pretty interface{}
	if err := json.Unmarshal(result, &pretty); err != nil {
		fmt.Fprintln(out, string(result))
		return nil
	}
	formatted, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Fprintln(out, string(result))
		return nil
	}
	fmt.Fprintln(out, string(formatted))
	return nil
}
