// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Round     RoundFileConfig     `toml:"round"`
	Telemetry TelemetryFileConfig `toml:"telemetry"`
}

// RoundFileConfig maps round-related settings.
type RoundFileConfig struct {
	Deck        *string  `toml:"deck"`
	TimeSec     *int     `toml:"time"`
	Adaptive    *bool    `toml:"adaptive"`
	AllowTokens *bool    `toml:"allow-tokens"`
	Mute        *bool    `toml:"mute"`
	Voice       *bool    `toml:"voice"`
	BaseFuzzy   *float64 `toml:"base-fuzzy"`
}

// TelemetryFileConfig maps ranking/telemetry settings.
type TelemetryFileConfig struct {
	Endpoint *string `toml:"endpoint"`
	Nick     *string `toml:"nick"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
