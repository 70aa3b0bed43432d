// Package resconfig loads process-level configuration for a res.Service
// from a config file, RES_-prefixed environment variables, and defaults,
// validating the result before the caller ever touches NATS.
package resconfig

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the settings needed to start a res.Service and its
// ambient infrastructure. It is read-only once Load returns.
type Config struct {
	NATSURL            string        `mapstructure:"nats_url" validate:"required,url"`
	ServiceName        string        `mapstructure:"service_name" validate:"required"`
	QueryEventDuration time.Duration `mapstructure:"query_event_duration" validate:"min=0"`
	LogLevel           string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	MetricsAddr        string        `mapstructure:"metrics_addr"`
}

// defaults applied before a file or environment variable is read.
var defaults = Config{
	NATSURL:            "nats://127.0.0.1:4222",
	ServiceName:        "res",
	QueryEventDuration: 3 * time.Second,
	LogLevel:           "info",
	MetricsAddr:        "",
}

// Load reads configuration from path (if non-empty), overlays RES_-prefixed
// environment variables, and validates the result. A non-empty path that
// cannot be read, including a missing file, is an error.
//
// path may be empty, in which case only defaults and the environment are
// used.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RES")
	v.AutomaticEnv()

	v.SetDefault("nats_url", defaults.NATSURL)
	v.SetDefault("service_name", defaults.ServiceName)
	v.SetDefault("query_event_duration", defaults.QueryEventDuration)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("resconfig: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("resconfig: decoding config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("resconfig: invalid config: %w", err)
	}

	return &cfg, nil
}
