package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/config"
	"github.com/pinctl/pinctl/internal/errors"
)

var (
	initServerFlag string
	initKeyFlag    string
	initForce      bool
)

// initCmd creates a new .pinctl.yaml configuration.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .pinctl.yaml configuration",
	Long: `Initialize a new pinctl configuration file.

Creates a .pinctl.yaml file in the current directory with sensible
defaults, prompting for the service URL and API key. The connection is
verified before the file is written.

Examples:
  pinctl init
  pinctl init --server http://pinsvc:8763
  pinctl init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(InitOptions{
			Server:         initServerFlag,
			APIKey:         initKeyFlag,
			Overwrite:      initForce,
			NonInteractive: initServerFlag != "" || machineMode,
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initServerFlag, "server", "", "pre-specify the service URL")
	initCmd.Flags().StringVar(&initKeyFlag, "api-key", "", "pre-specify the API key")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	rootCmd.AddCommand(initCmd)
}

// InitOptions holds options for the init command.
type InitOptions struct {
	Server         string
	APIKey         string
	Overwrite      bool
	NonInteractive bool
}

func initCommand(opts InitOptions) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	// Check for existing config
	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	serverURL := opts.Server
	apiKey := opts.APIKey

	if opts.NonInteractive {
		if serverURL == "" {
			return errors.New(errors.ErrConfig,
				"Service URL is required in non-interactive mode",
				"Provide --server or run interactively")
		}
	} else {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Service URL").
					Description("Base URL of the pinning service").
					Placeholder("http://localhost:8763").
					Value(&serverURL).
					Validate(func(s string) error {
						s = strings.TrimSpace(s)
						if s == "" {
							return nil // empty keeps the default
						}
						if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
							return fmt.Errorf("URL must start with http:// or https://")
						}
						return nil
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("API key (optional)").
					Description("Sent as X-API-Key on every request; leave empty to disable auth").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Use --server to provide values non-interactively")
		}
	}

	cfg := config.DefaultConfig()
	if strings.TrimSpace(serverURL) != "" {
		cfg.Server.URL = strings.TrimSpace(serverURL)
	}
	cfg.Server.APIKey = strings.TrimSpace(apiKey)

	if err := verifyConnection(cfg); err != nil {
		// Write the config anyway, the service may simply be down.
		fmt.Printf("Note: could not reach %s (%v)\n", cfg.Server.URL, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot serialize configuration", "")
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write "+configPath,
			"Check directory permissions")
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

// verifyConnection makes one status request against the configured server.
func verifyConnection(cfg *config.Config) error {
	client := api.NewClient(cfg.Server.URL, cfg.Server.APIKey, config.DefaultRequestTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultRequestTimeout)
	defer cancel()
	_, err := client.FetchStatus(ctx)
	return err
}
