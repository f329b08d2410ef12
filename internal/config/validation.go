package config

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/digivice/internal/display"
	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Validate checks a defaulted configuration and reports every invalid field.
func Validate(cfg *Config) error {
	results := []foundation.ValidationResult{
		validateLifeSpan(cfg.LifeSpan),
		validateXPBar(cfg.XPBarPosition),
		validateTick(cfg.TickInterval),
		validateRewards(cfg.Rewards),
		validateFolders(cfg.Faces.Folders),
		validateRetry("nats.connect_retry", cfg.NATS.ConnectRetry),
	}
	if strings.TrimSpace(cfg.DataFile) == "" {
		results = append(results, foundation.Invalid(foundation.NewValidationError("data_file", "required", "data_file must not be empty")))
	}
	if cfg.History.Retain < 0 {
		results = append(results, foundation.Invalid(foundation.NewValidationError("history.retain", "range", "history.retain must not be negative")))
	}
	combined := foundation.Valid()
	for _, r := range results {
		combined = combined.Combine(r)
	}
	return combined.ToError()
}

func resultOf(errs []foundation.FieldError) foundation.ValidationResult {
	if len(errs) == 0 {
		return foundation.Valid()
	}
	return foundation.Invalid(errs...)
}

func validateLifeSpan(days int) foundation.ValidationResult {
	if days < 1 {
		return foundation.Invalid(foundation.NewValidationError("life_span", "range", "life_span must be at least 1 day"))
	}
	return foundation.Valid()
}

func validateXPBar(raw string) foundation.ValidationResult {
	if _, err := display.ParsePoint(raw); err != nil {
		return foundation.Invalid(foundation.NewValidationError("xpbar_position", "format", err.Error()))
	}
	return foundation.Valid()
}

func validateTick(raw string) foundation.ValidationResult {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return foundation.Invalid(foundation.NewValidationError("tick_interval", "format", "tick_interval must be a positive duration such as 5s"))
	}
	return foundation.Valid()
}

func validateRewards(rewards map[string]float64) foundation.ValidationResult {
	var errs []foundation.FieldError
	for key, xp := range rewards {
		if _, err := pet.ParseEventKind(key); err != nil {
			errs = append(errs, foundation.NewValidationError("rewards."+key, "enum", "unknown event kind"))
			continue
		}
		if xp < 0 {
			errs = append(errs, foundation.NewValidationError("rewards."+key, "range", "reward must not be negative"))
		}
	}
	return resultOf(errs)
}

func validateFolders(folders map[string]string) foundation.ValidationResult {
	var errs []foundation.FieldError
	for name := range folders {
		if _, err := stage.Parse(name); err != nil {
			errs = append(errs, foundation.NewValidationError("faces.folders."+name, "enum", "unknown stage"))
		}
	}
	return resultOf(errs)
}
