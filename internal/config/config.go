// Package config reads objkit's environment configuration.
package config

import (
	"log/slog"
	"os"
	"strings"
)

// Environment variables understood by Load.
const (
	EnvLog       = "OBJKIT_LOG"        // debug|info|warn|error; unset disables logging
	EnvLogFormat = "OBJKIT_LOG_FORMAT" // text|json
	EnvLogAlloc  = "OBJKIT_LOG_ALLOC"  // any non-empty value logs every allocator call
	EnvZone      = "OBJKIT_ZONE"       // size-class preset for the system zone
)

// Config is the process configuration resolved at startup.
type Config struct {
	LogEnabled bool
	LogLevel   slog.Level
	LogJSON    bool

	// LogAlloc enables per-allocation debug records.
	LogAlloc bool

	// ZonePreset names the size-class preset backing the system default allocator.
	ZonePreset string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		LogLevel:   slog.LevelInfo,
		ZonePreset: "balanced",
	}
}

// Load reads the environment.
func Load() Config {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) Config {
	cfg := Default()

	if v, ok := lookup(EnvLog); ok && v != "" {
		if level, ok := parseLevel(v); ok {
			cfg.LogEnabled = true
			cfg.LogLevel = level
		}
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.LogJSON = strings.EqualFold(strings.TrimSpace(v), "json")
	}
	if v, ok := lookup(EnvLogAlloc); ok && v != "" {
		cfg.LogAlloc = true
	}
	if v, ok := lookup(EnvZone); ok && v != "" {
		cfg.ZonePreset = strings.ToLower(strings.TrimSpace(v))
	}
	return cfg
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "1", "true":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
