package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Values may be overridden by TWX_* environment variables after the file is read.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Remote    RemoteConfig    `toml:"remote"`
	Cache     CacheConfig     `toml:"cache"`
	Log       LogConfig       `toml:"log"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"TWX_DATABASE_PATH" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" env:"TWX_DATABASE_MAX_OPEN_CONNS" validate:"gte=1"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"TWX_DATABASE_MAX_IDLE_CONNS" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"TWX_SERVER_HOST"`
	Port int    `toml:"port" env:"TWX_SERVER_PORT" validate:"gte=1,lte=65535"`
}

// RemoteConfig contains settings shared by every backend client.
type RemoteConfig struct {
	TimeoutSeconds    int           `toml:"timeout_seconds" env:"TWX_REMOTE_TIMEOUT_SECONDS" validate:"gte=1"`
	RequestsPerSecond float64       `toml:"requests_per_second" env:"TWX_REMOTE_REQUESTS_PER_SECOND" validate:"gt=0"`
	Twitter           BackendConfig `toml:"twitter"`
	Fanfou            BackendConfig `toml:"fanfou"`
	Mastodon          BackendConfig `toml:"mastodon"`
}

// BackendConfig holds the default API root for a backend type.
//
// Accounts with their own api_url take precedence.
type BackendConfig struct {
	APIURL string `toml:"api_url" validate:"omitempty,url"`
}

// CacheConfig lists the local views that denormalize statuses.
type CacheConfig struct {
	Views []string `toml:"views" validate:"min=1,dive,required"`
}

// LogConfig controls log verbosity.
type LogConfig struct {
	Level string `toml:"level" env:"TWX_LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
}

// TelemetryConfig controls metrics and tracing.
type TelemetryConfig struct {
	MetricsNamespace string `toml:"metrics_namespace" env:"TWX_METRICS_NAMESPACE"`
	TraceStdout      bool   `toml:"trace_stdout" env:"TWX_TRACE_STDOUT"`
}

// Timeout returns the configured remote timeout as a [time.Duration].
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with any TWX_* environment variables that are set.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateConfig checks the config against its struct tags.
//
// Each failing field is reported in the returned error.
func ValidateConfig(config *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]error, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Errorf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(msgs...))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
