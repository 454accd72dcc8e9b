package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with the precedence: defaults, then the
// YAML file at configPath (if any), then environment overrides.
// A missing file is not an error; a malformed one is.
func LoadConfig(configPath string) (Config, error) {
	cfg := GetDefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("error reading config from %s: %w", configPath, err)
			}
			logging.Info("ConfigLoader", "No config file at %s, using defaults", configPath)
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error parsing config from %s: %w", configPath, err)
			}
			logging.Info("ConfigLoader", "Loaded configuration from %s", configPath)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides layers HF_MCP_* environment variables over the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HF_MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = Transport(v)
	}
	if v := os.Getenv("HF_MCP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("HF_MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			logging.Warn("ConfigLoader", "Ignoring non-numeric HF_MCP_PORT: %q", v)
		}
	}
	if v := os.Getenv("HF_SETTINGS_URL"); v != "" {
		cfg.Settings.ProviderURL = v
	}
	if v := os.Getenv("HF_MCP_BOUQUET"); v != "" {
		cfg.Policy.DefaultBouquet = v
	}
}
