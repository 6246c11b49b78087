package cliapp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds mmqfctl defaults loadable from a hujson config file, so
// repeated invocations against the same queue don't need to repeat flags.
type Config struct {
	Path     string `json:"path,omitempty"`
	SchemaID uint64 `json:"schema_id,omitempty"` //nolint:tagliatelle
	Capacity uint32 `json:"capacity,omitempty"`
	SlotSize uint32 `json:"slot_size,omitempty"` //nolint:tagliatelle
}

// ConfigFileName is the file name looked up under the config directory.
const ConfigFileName = "config.hujson"

// globalConfigPath returns $XDG_CONFIG_HOME/mmqf/config.hujson, falling
// back to ~/.config/mmqf/config.hujson. Returns "" if neither can be
// determined.
func globalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mmqf", ConfigFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "mmqf", ConfigFileName)
}

// LoadConfig reads the global config file if present. A missing file is not
// an error; it just yields a zero Config.
func LoadConfig() (Config, error) {
	path := globalConfigPath()
	if path == "" {
		return Config{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return cfg, nil
}
