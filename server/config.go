package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/halo-dev/halo/errors"
	"github.com/halo-dev/halo/server/middleware"
	"github.com/halo-dev/halo/validation"
)

// Config holds HTTP server configuration bound from server.*.
type Config struct {
	Host         string                `yaml:"host" mapstructure:"host"`
	Port         int                   `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  time.Duration         `yaml:"read-timeout" mapstructure:"read-timeout" validate:"gte=0"`
	WriteTimeout time.Duration         `yaml:"write-timeout" mapstructure:"write-timeout" validate:"gte=0"`
	IdleTimeout  time.Duration         `yaml:"idle-timeout" mapstructure:"idle-timeout" validate:"gte=0"`
	MaxBodySize  int64                 `yaml:"max-body-size" mapstructure:"max-body-size" validate:"gte=0"` // bytes, 0 disables
	CORS         middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Auth         AuthConfig            `yaml:"auth" mapstructure:"auth"`
	// RestartRateLimit caps admin restart requests per client per minute.
	RestartRateLimit int `yaml:"restart-rate-limit" mapstructure:"restart-rate-limit" validate:"gte=0"`
}

// AuthConfig configures bearer tokens for the admin API.
type AuthConfig struct {
	Secret string `yaml:"secret" mapstructure:"secret"`
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8090,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxBodySize:  10 << 20,
		CORS: middleware.CORSConfig{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		},
		Auth:             AuthConfig{Issuer: "halo"},
		RestartRateLimit: 6,
	}
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig binds server.* from v over DefaultConfig and validates it.
func LoadConfig(v *viper.Viper) (*Config, error) {
	d := DefaultConfig()
	for key, value := range map[string]any{
		"host":                   d.Host,
		"port":                   d.Port,
		"read-timeout":           d.ReadTimeout,
		"write-timeout":          d.WriteTimeout,
		"idle-timeout":           d.IdleTimeout,
		"max-body-size":          d.MaxBodySize,
		"cors.allowed-origins":   d.CORS.AllowedOrigins,
		"cors.allowed-methods":   d.CORS.AllowedMethods,
		"cors.allowed-headers":   d.CORS.AllowedHeaders,
		"cors.allow-credentials": d.CORS.AllowCredentials,
		"auth.secret":            d.Auth.Secret,
		"auth.issuer":            d.Auth.Issuer,
		"restart-rate-limit":     d.RestartRateLimit,
	} {
		v.SetDefault("server."+key, value)
	}

	var bound struct {
		Server Config `mapstructure:"server"`
	}
	if err := v.Unmarshal(&bound); err != nil {
		return nil, errors.Validation("invalid server configuration").WithCause(err)
	}
	cfg := bound.Server
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
