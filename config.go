package log4you

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config describes the backend the facade configures: which appenders are
// active, the rotation policy for the file appender, the minimum level and
// the shutdown drain behavior. It is loaded from a YAML file via LoadConfig
// or taken wholesale from DefaultConfig when no path is supplied.
type Config struct {
	Level          string `mapstructure:"level" validate:"required,oneof=trace debug info warn error fatal panic"`
	ConsoleLogging bool   `mapstructure:"console_logging"`
	FileLogging    bool   `mapstructure:"file_logging"`

	// LogDir is the directory for the rolling log file, relative to the
	// service working directory unless absolute.
	LogDir            string `mapstructure:"log_dir" validate:"required_if=FileLogging true"`
	LogFileMaxSizeMB  int    `mapstructure:"log_file_max_size_mb" validate:"gte=0"`
	LogFileMaxBackups int    `mapstructure:"log_file_max_backups" validate:"gte=0"`
	LogFileMaxAgeDays int    `mapstructure:"log_file_max_age_days" validate:"gte=0"`
	LogFileCompress   bool   `mapstructure:"log_file_compress"`

	WithTimestamp bool `mapstructure:"with_timestamp"`
	WithCaller    bool `mapstructure:"with_caller"`
	// CallerSkipFrames is added on top of the facade's own frame accounting,
	// for integrators that wrap this package in another layer.
	CallerSkipFrames int `mapstructure:"caller_skip_frames" validate:"gte=0"`

	ConsoleNoColor    bool   `mapstructure:"console_no_color"`
	ConsoleTimeFormat string `mapstructure:"console_time_format"`

	ShutdownTimeoutMS      int  `mapstructure:"shutdown_timeout_ms" validate:"gte=0"`
	ShutdownTimeoutWarning bool `mapstructure:"shutdown_timeout_warning"`
}

// DefaultConfig returns the built-in configuration used when no config file
// is supplied: console output at info level, no file appender.
func DefaultConfig() *Config {
	return &Config{
		Level:                  "info",
		ConsoleLogging:         true,
		FileLogging:            false,
		LogDir:                 "logs",
		LogFileMaxSizeMB:       100,
		LogFileMaxBackups:      5,
		LogFileMaxAgeDays:      7,
		WithTimestamp:          true,
		WithCaller:             true,
		ShutdownTimeoutMS:      500,
		ShutdownTimeoutWarning: true,
	}
}

// LoadConfig loads a Config from the YAML file at path, layered over the
// built-in defaults. An empty path selects the defaults without touching the
// filesystem. A path that does not exist or does not parse is an error:
// misconfigured logging is a deployment fault the operator must see at
// startup, not a silent fallback discovered when logs go missing.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == emptyString {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("level", cfg.Level)
	v.SetDefault("console_logging", cfg.ConsoleLogging)
	v.SetDefault("file_logging", cfg.FileLogging)
	v.SetDefault("log_dir", cfg.LogDir)
	v.SetDefault("log_file_max_size_mb", cfg.LogFileMaxSizeMB)
	v.SetDefault("log_file_max_backups", cfg.LogFileMaxBackups)
	v.SetDefault("log_file_max_age_days", cfg.LogFileMaxAgeDays)
	v.SetDefault("log_file_compress", cfg.LogFileCompress)
	v.SetDefault("with_timestamp", cfg.WithTimestamp)
	v.SetDefault("with_caller", cfg.WithCaller)
	v.SetDefault("caller_skip_frames", cfg.CallerSkipFrames)
	v.SetDefault("console_no_color", cfg.ConsoleNoColor)
	v.SetDefault("console_time_format", cfg.ConsoleTimeFormat)
	v.SetDefault("shutdown_timeout_ms", cfg.ShutdownTimeoutMS)
	v.SetDefault("shutdown_timeout_warning", cfg.ShutdownTimeoutWarning)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading logging config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling logging config %s: %w", path, err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
