// Package config loads the digivice YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

// Config is the full configuration file.
type Config struct {
	// Core pet options.
	Starter       string `yaml:"starter"`
	LifeSpan      int    `yaml:"life_span"`
	XPBarPosition string `yaml:"xpbar_position"`
	Digistats     *bool  `yaml:"digistats,omitempty"`

	DataFile     string             `yaml:"data_file"`
	TickInterval string             `yaml:"tick_interval"`
	Rewards      map[string]float64 `yaml:"rewards,omitempty"`
	Faces        FacesConfig        `yaml:"faces"`
	Restart      RestartConfig      `yaml:"restart"`
	History      HistoryConfig      `yaml:"history"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	NATS         NATSConfig         `yaml:"nats"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// FacesConfig locates the per-stage face folders and the host overlay.
type FacesConfig struct {
	Root       string            `yaml:"root"`
	Overlay    string            `yaml:"overlay"`     // YAML file the host merges into its config
	EvolveIcon string            `yaml:"evolve_icon"` // shown while restarting
	Folders    map[string]string `yaml:"folders,omitempty"`
}

// RestartConfig describes how the host is restarted after a transition.
type RestartConfig struct {
	Command []string `yaml:"command"`
	Sync    *bool    `yaml:"sync,omitempty"`
	DryRun  bool     `yaml:"dry_run"`
}

// HistoryConfig controls the SQLite evolution history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Retain  int    `yaml:"retain"` // lifecycles kept in the in-memory summary
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// NATSConfig connects the daemon to the host's event bus.
type NATSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	URL               string `yaml:"url"`
	EventSubject      string `yaml:"event_subject"`      // inbound network events
	TransitionSubject string `yaml:"transition_subject"` // outbound evolutions and resets
	JetStream         bool   `yaml:"jetstream"`

	ConnectRetry RetryConfig `yaml:"connect_retry"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// DigistatsEnabled reports the digistats option (default true).
func (c *Config) DigistatsEnabled() bool {
	return c.Digistats == nil || *c.Digistats
}

// SyncBeforeRestart reports the restart.sync option (default true).
func (c *Config) SyncBeforeRestart() bool {
	return c.Restart.Sync == nil || *c.Restart.Sync
}

// XPBar returns the parsed xpbar_position. Validate guarantees it parses.
func (c *Config) XPBar() display.Point {
	p, err := display.ParsePoint(c.XPBarPosition)
	if err != nil {
		p, _ = display.ParsePoint(DefaultXPBarPosition)
	}
	return p
}

// Tick returns the parsed tick interval. Validate guarantees it parses.
func (c *Config) Tick() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTickInterval)
	}
	return d
}

// Load reads configPath, expands environment variables, applies defaults and
// validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML content with environment expansion, then applies
// defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			UserAction().
			Build()
	}

	for _, w := range Normalize(&cfg) {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
