package config

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/digivice/internal/faces"
	"git.home.luguber.info/inful/digivice/internal/notify"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/restart"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

const (
	DefaultStarter       = stage.Random
	DefaultLifeSpan      = 15
	DefaultXPBarPosition = "53,64"
	DefaultDataFile      = "/etc/pwnagotchi/digivice_data.json"
	DefaultOverlay       = "/etc/pwnagotchi/conf.d/digivice-faces.yaml"
	DefaultTickInterval  = "5s"
	DefaultHistoryPath   = "/var/lib/digivice/history.db"
	DefaultHistoryRetain = 50
	DefaultMetricsListen = "127.0.0.1:9464"
	DefaultMetricsPath   = "/metrics"
	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultEventSubject  = "pwnagotchi.events"

	DefaultConnectRetries = 2
	DefaultRetryInitial   = time.Second
	DefaultRetryMax       = 30 * time.Second
)

// Normalize case-folds enumerations and coerces the starter. It returns a
// warning per coerced value.
func Normalize(cfg *Config) []string {
	var warnings []string

	starter := strings.ToLower(strings.TrimSpace(cfg.Starter))
	if starter != "" {
		normalized := stage.ParseStarter(starter)
		if normalized != starter {
			warnings = append(warnings, fmt.Sprintf("starter %q is not a rookie, using %q", cfg.Starter, normalized))
		}
		starter = normalized
	}
	cfg.Starter = starter

	if len(cfg.Rewards) > 0 {
		canonical := make(map[string]float64, len(cfg.Rewards))
		for key, xp := range cfg.Rewards {
			if kind, err := pet.ParseEventKind(key); err == nil {
				key = string(kind)
			}
			canonical[key] = xp
		}
		cfg.Rewards = canonical
	}

	if cfg.Logging.Level != "" {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
	if cfg.NATS.ConnectRetry.Mode != "" {
		cfg.NATS.ConnectRetry.Mode = NormalizeRetryBackoff(string(cfg.NATS.ConnectRetry.Mode))
	}
	return warnings
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	if cfg.Starter == "" {
		cfg.Starter = DefaultStarter
	}
	if cfg.LifeSpan == 0 {
		cfg.LifeSpan = DefaultLifeSpan
	}
	if cfg.XPBarPosition == "" {
		cfg.XPBarPosition = DefaultXPBarPosition
	}
	if cfg.DataFile == "" {
		cfg.DataFile = DefaultDataFile
	}
	if cfg.TickInterval == "" {
		cfg.TickInterval = DefaultTickInterval
	}

	rewards := pet.DefaultRewards()
	if cfg.Rewards == nil {
		cfg.Rewards = make(map[string]float64, len(rewards))
	}
	for kind, xp := range rewards {
		if _, ok := cfg.Rewards[string(kind)]; !ok {
			cfg.Rewards[string(kind)] = xp
		}
	}

	if cfg.Faces.Root == "" {
		cfg.Faces.Root = faces.DefaultRoot
	}
	if cfg.Faces.Overlay == "" {
		cfg.Faces.Overlay = DefaultOverlay
	}
	if cfg.Faces.EvolveIcon == "" {
		cfg.Faces.EvolveIcon = notify.DefaultEvolveIcon
	}
	if len(cfg.Restart.Command) == 0 {
		cfg.Restart.Command = append([]string(nil), restart.DefaultCommand...)
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.Retain == 0 {
		cfg.History.Retain = DefaultHistoryRetain
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsListen
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = DefaultNATSURL
	}
	if cfg.NATS.EventSubject == "" {
		cfg.NATS.EventSubject = DefaultEventSubject
	}
	if cfg.NATS.TransitionSubject == "" {
		cfg.NATS.TransitionSubject = notify.DefaultSubject
	}
	if cfg.NATS.ConnectRetry.Mode == "" {
		cfg.NATS.ConnectRetry.Mode = RetryBackoffLinear
	}
	if cfg.NATS.ConnectRetry.Initial == 0 {
		cfg.NATS.ConnectRetry.Initial = DefaultRetryInitial
	}
	if cfg.NATS.ConnectRetry.Max == 0 {
		cfg.NATS.ConnectRetry.Max = DefaultRetryMax
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
