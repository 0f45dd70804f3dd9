package config

import (
	"fmt"
	"slices"

	"github.com/spf13/viper"

	"github.com/halo-dev/halo/logger"
)

// ServiceConfig contains the identity and logging settings of the process,
// bound from the app.* and logging.* keys.
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the base configuration.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "halo"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the base configuration fields.
func (c *ServiceConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	if !slices.Contains(validEnvs, c.Environment) {
		return fmt.Errorf("app.environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// LoadServiceConfig binds the service identity and logging settings from v.
func LoadServiceConfig(v *viper.Viper) (*ServiceConfig, error) {
	for key, value := range map[string]any{
		"app.name":          "",
		"app.environment":   "",
		"app.version":       "",
		"logging.level":     "",
		"logging.format":    "",
		"logging.output":    "",
		"logging.no_color":  false,
		"logging.timestamp": true,
		"logging.caller":    false,
	} {
		v.SetDefault(key, value)
	}

	// Unmarshal the whole tree: UnmarshalKey on a parent key skips
	// environment overrides of its children.
	var bound struct {
		App     ServiceConfig `mapstructure:"app"`
		Logging logger.Config `mapstructure:"logging"`
	}
	if err := v.Unmarshal(&bound); err != nil {
		return nil, fmt.Errorf("config: bind app: %w", err)
	}
	cfg := &bound.App
	cfg.Logging = bound.Logging
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
