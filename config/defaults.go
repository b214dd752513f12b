// Package config loads the host-level settings rawrctl needs to locate its
// working directory — everything below the per-feature TOML blocks that
// live inside that same config file (see autocompact/rawr/config for the
// auto-compaction arbiter's own, stricter block).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the host-level settings shared by every subsystem reading
// from the same on-disk config file.
type Config struct {
	CosmosDir string `toml:"cosmos_dir"`
}

// DefaultConfig returns a Config rooted at ~/.cosmos.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{CosmosDir: filepath.Join(home, ".cosmos")}
}

// ConfigFilePath returns the path to the config file inside CosmosDir.
func (c Config) ConfigFilePath() string {
	return filepath.Join(c.CosmosDir, "config.toml")
}

// Load loads configuration from the default location (~/.cosmos/config.toml),
// falling back to defaults if the file does not exist.
func Load() (Config, []string, error) {
	defaults := DefaultConfig()
	return LoadFrom(defaults.ConfigFilePath(), defaults)
}

// LoadFrom loads configuration from path, overlaying TOML values onto
// defaults. A missing file is not an error (first run). Unlike
// autocompact/rawr/config.Load, unrecognized keys are only warned about here —
// this is the ambient host config, not the arbiter's own strictly-validated
// block, and other subsystems may legitimately share the same file.
func LoadFrom(path string, defaults Config) (Config, []string, error) {
	cfg := defaults

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil, nil
		}
		return Config{}, nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	var warnings []string
	for _, key := range meta.Undecoded() {
		// The arbiter's own [rawr_auto_compaction] table is decoded
		// separately by autocompact/rawr/config; it is expected to show up here
		// as "undecoded" and must not be warned about.
		if key.String() == "rawr_auto_compaction" || (len(key) > 0 && key[0] == "rawr_auto_compaction") {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("unknown config key: %s", key))
	}

	return cfg, warnings, nil
}

// EnsureDirs creates CosmosDir if it does not exist.
func (c Config) EnsureDirs() error {
	if c.CosmosDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.CosmosDir, 0o700); err != nil {
		return fmt.Errorf("creating directory %s: %w", c.CosmosDir, err)
	}
	return nil
}
