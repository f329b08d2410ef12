package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

const exampleHeader = `# digivice configuration
#
# starter: agumon | betamon | gabumon | random
# life_span: days before the pet resets to a new starter
# Values may reference environment variables, e.g. url: ${NATS_URL}
`

// Init writes an example configuration file with every default spelled out.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	digistats := true
	example.Digistats = &digistats
	sync := true
	example.Restart.Sync = &sync
	example.History.Enabled = true
	example.NATS.URL = "${NATS_URL}"
	retries := DefaultConnectRetries
	example.NATS.ConnectRetry.MaxRetries = &retries

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to marshal example config").WithCause(err).Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(configPath, append([]byte(exampleHeader), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
