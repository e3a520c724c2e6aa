package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	API    APIConfig    `mapstructure:"api"    validate:"required"`
	Reader ReaderConfig `mapstructure:"reader" validate:"required"`
}

// ServerConfig contains process-level settings: logging and the optional
// local status endpoint.
type ServerConfig struct {
	LogLevel  string `mapstructure:"log_level"   validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format"  validate:"required,oneof=json text"`
	// StatusPort enables the local status endpoint when non-zero.
	StatusPort int `mapstructure:"status_port" validate:"gte=0,lt=65536"`
}

// APIConfig contains the settings for talking to the notes API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"gt=0"`
}

// ReaderConfig controls the reading timers.
type ReaderConfig struct {
	// MinuteDuration is the wall-clock length of one reading minute.
	MinuteDuration time.Duration `mapstructure:"minute_duration"  validate:"gt=0"`
	// RefreshInterval re-fetches the note list periodically when non-zero.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
}
