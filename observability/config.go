package observability

import (
	"time"

	"github.com/spf13/viper"

	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/validation"
)

// Config configures OpenTelemetry export, bound from observability.*.
type Config struct {
	// Enabled turns on OTLP export. When false the providers are no-ops.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `yaml:"sample-rate" mapstructure:"sample-rate" validate:"gte=0,lte=1"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	// ExportTimeout bounds a single export request.
	ExportTimeout time.Duration `yaml:"export-timeout" mapstructure:"export-timeout" validate:"gte=0"`
}

// DefaultConfig returns export disabled with development collector settings.
func DefaultConfig() Config {
	return Config{
		Endpoint:      "localhost:4318",
		Insecure:      true,
		SampleRate:    1.0,
		Interval:      15 * time.Second,
		ExportTimeout: 10 * time.Second,
	}
}

// LoadConfig binds observability.* from v over DefaultConfig.
func LoadConfig(v *viper.Viper) (*Config, error) {
	d := DefaultConfig()
	v.SetDefault("observability.enabled", d.Enabled)
	v.SetDefault("observability.endpoint", d.Endpoint)
	v.SetDefault("observability.insecure", d.Insecure)
	v.SetDefault("observability.sample-rate", d.SampleRate)
	v.SetDefault("observability.interval", d.Interval)
	v.SetDefault("observability.export-timeout", d.ExportTimeout)

	var bound struct {
		Observability Config `mapstructure:"observability"`
	}
	if err := v.Unmarshal(&bound); err != nil {
		return nil, errors.Validation("invalid observability configuration").WithCause(err)
	}
	cfg := bound.Observability
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
