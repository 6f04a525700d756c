// Package config loads the player CLI's settings the way glow loads its
// own: Viper over a YAML file and CLI flags, with a small struct-tagged
// environment overlay for the handful of values worth setting outside a
// config file or flag (container deployments, CI).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the CLI's tunables for the output device and the engine's
// ring buffer, plus the log level, per SPEC_FULL.md's ambient configuration
// section.
type Config struct {
	DeviceIndex     int    `mapstructure:"device"`
	RingCapacity    uint64 `mapstructure:"ring_capacity"`
	FramesPerBuffer int    `mapstructure:"frames_per_buffer"`
	LogLevel        string `mapstructure:"log_level"`
}

// envOverlay is the small set of values worth overriding purely through the
// environment, layered on top of whatever Viper already resolved.
type envOverlay struct {
	DeviceIndex     *int    `env:"PLAYERCORE_DEVICE"`
	RingCapacity    *uint64 `env:"PLAYERCORE_RING_CAPACITY"`
	FramesPerBuffer *int    `env:"PLAYERCORE_FRAMES_PER_BUFFER"`
	LogLevel        *string `env:"PLAYERCORE_LOG_LEVEL"`
}

// Default returns the configuration used when no flag, file, or env
// variable overrides a field.
func Default() Config {
	return Config{
		DeviceIndex:     1,
		RingCapacity:    256,
		FramesPerBuffer: 512,
		LogLevel:        "info",
	}
}

// Load resolves a Config from (in ascending priority) built-in defaults, an
// optional YAML config file named playercore.yaml on the usual search path,
// and the PLAYERCORE_* environment overlay. Cobra flag binding happens
// separately, via BindFlags, before Load is called.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	v.SetDefault("device", cfg.DeviceIndex)
	v.SetDefault("ring_capacity", cfg.RingCapacity)
	v.SetDefault("frames_per_buffer", cfg.FramesPerBuffer)
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetConfigName("playercore")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "playercore"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("playercore")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}

	var overlay envOverlay
	if err := env.Parse(&overlay); err != nil {
		return cfg, fmt.Errorf("config: parse environment overlay: %w", err)
	}
	if overlay.DeviceIndex != nil {
		cfg.DeviceIndex = *overlay.DeviceIndex
	}
	if overlay.RingCapacity != nil {
		cfg.RingCapacity = *overlay.RingCapacity
	}
	if overlay.FramesPerBuffer != nil {
		cfg.FramesPerBuffer = *overlay.FramesPerBuffer
	}
	if overlay.LogLevel != nil {
		cfg.LogLevel = *overlay.LogLevel
	}

	return cfg, nil
}

// BindFlags wires Cobra flags onto v so flag values take priority over the
// config file and its defaults, matching the rest of the pack's
// Viper/Cobra integration.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, flagName := range map[string]string{
		"device":            "device",
		"ring_capacity":     "capacity",
		"frames_per_buffer": "frames",
		"log_level":         "log-level",
	} {
		f := flags.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind flag %q: %w", flagName, err)
		}
	}
	return nil
}
