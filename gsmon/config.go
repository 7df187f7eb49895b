package gsmon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Config is the daemon configuration. It is loaded once at startup and
// stays immutable for the lifetime of a run.
type Config struct {
	MonitorInterval     int    `json:"monitor_interval" validate:"min=1"`
	Endpoint            string `json:"gsocket_endpoint" validate:"required"`
	MaxRetries          int    `json:"max_retries" validate:"min=0"`
	Timeout             int    `json:"timeout" validate:"min=1"`
	MaintenanceEnabled  bool   `json:"maintenance_enabled"`
	MaintenanceSchedule string `json:"maintenance_schedule" validate:"required"`
	RetryDelay          int    `json:"retry_delay" validate:"min=0"`
	RestoreCommand      string `json:"restore_command,omitempty"`
}

// ConfigError describes a missing or unusable configuration value. It is
// fatal to the command invoked, never to an already-running loop.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		MonitorInterval:     60,
		Endpoint:            "localhost:8080",
		MaxRetries:          3,
		Timeout:             10,
		MaintenanceEnabled:  true,
		MaintenanceSchedule: "@hourly",
	}
}

var validate = validator.New()

// Validate checks the configuration against its constraints and returns a
// ConfigError on the first violation.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigError{
				Field:  verrs[0].Field(),
				Reason: fmt.Sprintf("failed %q constraint", verrs[0].Tag()),
			}
		}
		return errors.Wrap(err, "failed to validate config")
	}

	if _, err := cron.ParseStandard(c.MaintenanceSchedule); err != nil {
		return &ConfigError{Field: "MaintenanceSchedule", Reason: err.Error()}
	}

	return nil
}

// LoadConfig reads and validates the configuration file at path. Fields
// absent from the file keep their defaults. A missing or malformed file is
// an error; use LoadOrCreateConfig for commands that should fall back to
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Reason: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadOrCreateConfig loads the configuration file, materializing the
// defaults on disk if the file does not exist yet. Malformed or invalid
// files are still errors.
func LoadOrCreateConfig(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if err == nil {
		return cfg, nil
	}

	if !os.IsNotExist(errors.Cause(err)) {
		return cfg, err
	}

	cfg = DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration as indented JSON, creating the parent
// directory if needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Interval is the sleep duration between monitor ticks.
func (c Config) Interval() time.Duration {
	return time.Duration(c.MonitorInterval) * time.Second
}

// ProbeTimeout bounds a single reachability probe.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RestoreDelay is the wait between recovery attempts. Zero means retries
// are immediate and sequential.
func (c Config) RestoreDelay() time.Duration {
	return time.Duration(c.RetryDelay) * time.Second
}
