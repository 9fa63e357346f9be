package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides, e.g.
// TASKTRACK_SERVER_PORT or TASKTRACK_DATABASE_URL.
const envPrefix = "TASKTRACK"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine: env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting so that a bare
// environment still yields a runnable configuration (except for the database
// URL, which has no sensible default and must be provided).
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	// Empty-string defaults register the keys so AutomaticEnv can bind them;
	// required-ness is enforced by validation, not by viper.
	v.SetDefault("database.url", "")
	v.SetDefault("database.backup_url", "")
	v.SetDefault("database.health_check_interval_secs", 15)

	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "task-events")
	v.SetDefault("events.routing_key", "task.created")

	v.SetDefault("job.pause_page_size", 100)
	v.SetDefault("job.pause_hour_utc", 0)
}
