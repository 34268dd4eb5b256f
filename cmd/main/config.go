package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/wordgraph/pkg/wordgraph"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the process-level settings: logging, storage and the REPL.
type ServerConfig struct {
	LogLevel     string `json:"log_level"`
	DatabasePath string `json:"database_path"`
	HistoryFile  string `json:"history_file"`
}

// GeneratorConfig holds the walk tuning used for every generated sentence.
type GeneratorConfig struct {
	Terminal     string  `json:"terminal"`
	StopExponent float64 `json:"stop_exponent"`
	MaxSteps     int     `json:"max_steps"`
	Overshoot    bool    `json:"overshoot"`
	MaxLength    int     `json:"max_length"` // 0 means unbounded
	Seed         uint64  `json:"seed"`       // 0 means seeded from the clock
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server    *ServerConfig    `json:"server"`
	Generator *GeneratorConfig `json:"generator"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		LogLevel:     "info",
		DatabasePath: "./data/wordgraph.db?_journal_mode=WAL&_busy_timeout=5000",
		HistoryFile:  "./data/.wordgraph_history",
	}
}

// DefaultGeneratorConfig creates a generator configuration with default values.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Terminal:     wordgraph.DefaultTerminal,
		StopExponent: wordgraph.DefaultStopExponent,
		MaxSteps:     wordgraph.DefaultMaxSteps,
		Overshoot:    true,
		MaxLength:    0,
		Seed:         0,
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Generator: DefaultGeneratorConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Warn instead of failing, as the program can still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// Sections missing from the file keep their defaults.
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Generator == nil {
		config.Generator = DefaultGeneratorConfig()
	}

	return config, nil
}

// WalkOptions translates the generator section into walker options.
func (c *GeneratorConfig) WalkOptions() []wordgraph.WalkOption {
	return []wordgraph.WalkOption{
		wordgraph.WithTerminal(c.Terminal),
		wordgraph.WithStopExponent(c.StopExponent),
		wordgraph.WithMaxSteps(c.MaxSteps),
		wordgraph.WithOvershoot(c.Overshoot),
	}
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
