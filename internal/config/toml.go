// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/faketype/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Typing TypingConfig `toml:"typing"`
}

// TypingConfig maps typing pace settings. Nil fields are unset.
type TypingConfig struct {
	Speed         *int  `toml:"speed"`
	MinSpeed      *int  `toml:"min-speed"`
	MaxSpeed      *int  `toml:"max-speed"`
	Jitter        *bool `toml:"jitter"`
	JitterPercent *int  `toml:"jitter-pct"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Apply overlays the set values on base.
func (c TypingConfig) Apply(base model.SpeedConfig) model.SpeedConfig {
	if c.Speed != nil {
		base.BaseDelayMs = *c.Speed
	}
	if c.MinSpeed != nil {
		base.MinDelayMs = *c.MinSpeed
	}
	if c.MaxSpeed != nil {
		base.MaxDelayMs = *c.MaxSpeed
	}
	if c.Jitter != nil {
		base.JitterEnabled = *c.Jitter
	}
	if c.JitterPercent != nil {
		base.JitterPercent = *c.JitterPercent
	}
	return base
}
