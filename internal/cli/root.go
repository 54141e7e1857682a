// Package cli wires the pinctl commands: operation discovery and
// invocation, one-shot status, the live dashboard, and config bootstrap.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pinctl/pinctl/internal/api"
	"github.com/pinctl/pinctl/internal/config"
	"github.com/pinctl/pinctl/internal/errors"
)

// Global flags
var (
	configFlag  string
	serverFlag  string
	apiKeyFlag  string
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "pinctl",
	Short: "Operator console for a remote pinning service",
	Long: `pinctl is an operator console for a remote content pinning service.

It discovers the service's operations at runtime, builds invocation forms
from their schemas, and watches live system metrics over polling or a
realtime push channel.

Examples:
  pinctl ops
  pinctl call create_backend
  pinctl status
  pinctl watch`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file (default: search for .pinctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "service URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")

	viper.SetEnvPrefix("PINCTL")
	_ = viper.BindEnv("server.url", "PINCTL_SERVER")
	_ = viper.BindEnv("server.api_key", "PINCTL_API_KEY")
	_ = viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("server.api_key", rootCmd.PersistentFlags().Lookup("api-key"))
}

// Config returns the --config flag value.
func Config() string {
	return configFlag
}

// loadConfig loads the effective configuration, folding in flag and env
// overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}
	if v := viper.GetString("server.url"); v != "" {
		cfg.Server.URL = v
	}
	if v := viper.GetString("server.api_key"); v != "" {
		cfg.Server.APIKey = v
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds the API client from the effective configuration.
func newClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRequestTimeout
	}
	client := api.NewClient(cfg.Server.URL, cfg.Server.APIKey, timeout)
	return client, cfg, nil
}

// requestTimeout returns the per-request timeout from config, falling back
// to the default.
func requestTimeout(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.Server.Timeout > 0 {
		return cfg.Server.Timeout
	}
	return config.DefaultRequestTimeout
}

// Execute runs the root command and maps failures to exit codes.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if machineMode {
			_ = WriteJSONFromError(os.Stderr, err)
		} else if _, ok := err.(*errors.Error); ok {
			// Structured errors already carry the ✗ prefix and suggestion.
			fmt.Fprintln(os.Stderr, err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "✗ %s\n", err.Error())
		}
		os.Exit(1)
	}
}
