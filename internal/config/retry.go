package config

import (
	"time"

	"git.home.luguber.info/inful/digivice/internal/foundation"
)

// RetryBackoffMode selects how retry delays grow.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = foundation.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}, RetryBackoffLinear)

func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig describes retry/backoff for connecting to external systems.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries *int             `yaml:"max_retries,omitempty"`
}

// Retries returns max_retries (default 2).
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return DefaultConnectRetries
	}
	return *r.MaxRetries
}

func validateRetry(field string, r RetryConfig) foundation.ValidationResult {
	var errs []foundation.FieldError
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		errs = append(errs, foundation.NewValidationError(field+".max_retries", "range", "max_retries must not be negative"))
	}
	if r.Initial < 0 || r.Max < 0 {
		errs = append(errs, foundation.NewValidationError(field, "range", "retry delays must not be negative"))
	}
	return resultOf(errs)
}
