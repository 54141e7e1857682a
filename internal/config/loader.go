package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pinctl/pinctl/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".pinctl.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/pinctl"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'pinctl init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .pinctl.yaml in current directory
// 3. .pinctl.yaml in parent directories (stops at git root or home)
// 4. ~/.config/pinctl/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	// 3. Walk up to parent directories
	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		if home != "" && parent == home {
			// Don't go above home directory
			break
		}
		dir = parent

		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Stop at git root
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}
	}

	// 4. Global config
	if home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the explicit path or the first found
// location, falling back to defaults when no config file exists. Commands
// that should work without existing config use this entry point.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults configures viper defaults that are merged under explicit values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:8763")
	v.SetDefault("server.timeout", "10s")
	v.SetDefault("sync.poll_interval", "5s")
	v.SetDefault("sync.reconnect_delay", "2500ms")
	v.SetDefault("sync.realtime", false)
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.verbosity", "normal")
}

// Validate checks a loaded config for values that cannot work.
func Validate(cfg *Config) error {
	url := strings.TrimSpace(cfg.Server.URL)
	if url == "" {
		return errors.New(errors.ErrConfig,
			"Server URL is empty",
			"Set server.url in "+ConfigFileName+" or pass --server")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errors.New(errors.ErrConfig,
			"Server URL must start with http:// or https://: "+url,
			"Fix server.url in "+ConfigFileName)
	}
	if cfg.Sync.PollInterval <= 0 {
		return errors.New(errors.ErrConfig,
			"Poll interval must be positive",
			"Use a duration like 5s for sync.poll_interval")
	}
	if cfg.Sync.ReconnectDelay <= 0 {
		return errors.New(errors.ErrConfig,
			"Reconnect delay must be positive",
			"Use a duration like 2500ms for sync.reconnect_delay")
	}
	return nil
}
