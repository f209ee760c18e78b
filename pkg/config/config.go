// Package config loads logkeep.yaml.
package config

import (
	"strings"
	"time"

	"github.com/modoterra/logkeep/pkg/registry"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "logkeep.yaml"

// Config represents a logkeep.yaml configuration file.
type Config struct {
	Version     int               `yaml:"version"     json:"version"     koanf:"version"     validate:"eq=1"`
	Root        string            `yaml:"root"        json:"root"        koanf:"root"`
	Socket      string            `yaml:"socket"      json:"socket"      koanf:"socket"      validate:"required"`
	LogLevel    string            `yaml:"log_level"   json:"log_level"   koanf:"log_level"   validate:"omitempty,oneof=debug info warn error"`
	LogPaths    string            `yaml:"log_paths"   json:"log_paths"   koanf:"log_paths"`
	Trim        TrimConfig        `yaml:"trim"        json:"trim"        koanf:"trim"`
	Watch       WatchConfig       `yaml:"watch"       json:"watch"       koanf:"watch"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics" json:"diagnostics" koanf:"diagnostics"`

	// FilePath is where the config was loaded from; not serialized.
	FilePath string `yaml:"-" json:"-" koanf:"-"`
}

// TrimConfig controls the trim operations.
type TrimConfig struct {
	MaxLines int `yaml:"max_lines" json:"max_lines" koanf:"max_lines" validate:"gte=1"`
}

// WatchConfig controls the daemon's status watch loop.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval" koanf:"interval" validate:"gte=0"`
}

// DiagnosticsConfig names the logs the test operation writes to.
type DiagnosticsConfig struct {
	HostLog     string `yaml:"host_log"      json:"host_log"      koanf:"host_log"`
	SystemLog   string `yaml:"system_log"    json:"system_log"    koanf:"system_log"`
	HostLogFile string `yaml:"host_log_file" json:"host_log_file" koanf:"host_log_file"`
	Journal     bool   `yaml:"journal"       json:"journal"       koanf:"journal"`
}

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		Version:  1,
		Socket:   "/tmp/logkeep.sock",
		LogLevel: "info",
		LogPaths: "{}",
		Trim:     TrimConfig{MaxLines: 25},
		Watch:    WatchConfig{Interval: 2 * time.Second},
		Diagnostics: DiagnosticsConfig{
			HostLog:   "hostLogFile",
			SystemLog: "systemErrorLogFile",
		},
	}
}

// Registry builds the log registry from LogPaths, expanding ${root} in paths.
func (c *Config) Registry() *registry.Registry {
	reg := registry.Load(c.LogPaths)
	if c.Root == "" {
		return reg
	}
	entries := reg.All()
	for i := range entries {
		entries[i].Path = c.interpolate(entries[i].Path)
	}
	return registry.New(entries...)
}

// HostLogPath returns the host log file with ${root} expanded.
func (c *Config) HostLogPath() string {
	return c.interpolate(c.Diagnostics.HostLogFile)
}

func (c *Config) interpolate(s string) string {
	if c.Root == "" {
		return s
	}
	return strings.ReplaceAll(s, "${root}", c.Root)
}
