package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"meshgateway/pkg/errors"
)

// Loader loads configuration from file
type Loader struct {
	path       string
	envEnabled bool
}

// NewLoader creates a config loader
func NewLoader(path string) *Loader {
	return &Loader{
		path:       path,
		envEnabled: true,
	}
}

// WithEnvVars enables or disables environment variable overrides
func (l *Loader) WithEnvVars(enabled bool) *Loader {
	l.envEnabled = enabled
	return l
}

// Load loads the configuration
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration, "failed to read config file").WithCause(err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration, "failed to parse config").WithCause(err)
	}

	if l.envEnabled {
		if err := LoadEnv(&cfg); err != nil {
			return nil, errors.NewError(errors.ErrorTypeConfiguration, "failed to load env overrides").WithCause(err)
		}
	}

	if err := l.validate(&cfg); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration, "invalid configuration").WithCause(err)
	}

	return &cfg, nil
}

// validate checks the required fields
func (l *Loader) validate(cfg *Config) error {
	if cfg.Gateway.Listen.Port == 0 {
		return fmt.Errorf("listen port is required")
	}
	if cfg.Gateway.Hop == "" {
		return fmt.Errorf("hop name is required")
	}
	if cfg.Gateway.Service.Name == "" {
		return fmt.Errorf("fallback service name is required")
	}
	if cfg.Gateway.Service.BaseURL == "" {
		return fmt.Errorf("fallback service baseUrl is required")
	}
	return nil
}
