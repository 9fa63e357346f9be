package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
	Job      JobConfig      `mapstructure:"job"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"       validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// DatabaseConfig contains all database-related configuration settings.
// BackupURL is optional; when set, the server opens a second pool and fails
// over to it while the primary is unreachable.
type DatabaseConfig struct {
	URL                     string `mapstructure:"url"                        validate:"required,url"`
	BackupURL               string `mapstructure:"backup_url"                 validate:"omitempty,url"`
	HealthCheckIntervalSecs int    `mapstructure:"health_check_interval_secs" validate:"omitempty,gt=0"`
}

// EventsConfig contains the settings for the task-created notification sink.
// When URL is empty, publication degrades to a log-only publisher.
type EventsConfig struct {
	AMQPURL    string `mapstructure:"amqp_url"    validate:"omitempty,uri"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// JobConfig contains the settings for the stale-task pause job.
type JobConfig struct {
	PausePageSize int `mapstructure:"pause_page_size" validate:"omitempty,gt=0"`
	// PauseHourUTC is the hour of day (UTC) at which the daily pause run
	// starts. Zero means midnight.
	PauseHourUTC int `mapstructure:"pause_hour_utc" validate:"gte=0,lt=24"`
}
