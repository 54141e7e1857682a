package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .pinctl.yaml configuration file.
type Config struct {
	Version int          `yaml:"version" mapstructure:"version"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Sync    SyncConfig   `yaml:"sync" mapstructure:"sync"`
	Output  OutputConfig `yaml:"output" mapstructure:"output"`
}

// ServerConfig describes how to reach the remote control service.
type ServerConfig struct {
	// URL is the base URL of the control service, e.g. "http://localhost:8763".
	URL string `yaml:"url" mapstructure:"url"`

	// APIKey is sent as X-API-Key on every request. Empty disables auth.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Timeout is the per-request timeout for plain HTTP calls.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SyncConfig controls how the local view of remote state is kept fresh.
type SyncConfig struct {
	// PollInterval is the cadence of the status/metrics poll loop.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// ReconnectDelay is how long to wait before redialing the push
	// channel after it drops while realtime is still enabled.
	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`

	// Realtime starts the watch dashboard with the push channel enabled.
	Realtime bool `yaml:"realtime" mapstructure:"realtime"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`

	// Verbosity level: "quiet", "normal", or "verbose".
	Verbosity string `yaml:"verbosity" mapstructure:"verbosity"`
}

// Defaults for the sync cadence. These mirror the observed behavior of the
// service's own console: one poll round every 5s, channel redial after 2.5s.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultReconnectDelay = 2500 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Server: ServerConfig{
			URL:     "http://localhost:8763",
			Timeout: DefaultRequestTimeout,
		},
		Sync: SyncConfig{
			PollInterval:   DefaultPollInterval,
			ReconnectDelay: DefaultReconnectDelay,
			Realtime:       false,
		},
		Output: OutputConfig{
			Color:     "auto",
			Verbosity: "normal",
		},
	}
}
