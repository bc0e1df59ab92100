// Package config provides configuration types and validation for the
// control plane.
//
// Configuration is read once at startup from a JSON file, normalized by
// Validate, and passed by reference into every component. No component
// mutates configuration after startup.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "DESIGNATED_CONFIG"

// ResolveConfigPath picks the config file path from the explicit flag value
// or the environment, in that order. Empty means "use defaults only".
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfigPath)
}

// Load reads and validates configuration. An empty path yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "designate.db"
	}
	if _, err := cfg.StorageTimeout(); err != nil {
		return fmt.Errorf("storage.call_timeout: %w", err)
	}

	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 9001
	}
	if cfg.API.Port < 0 || cfg.API.Port > 65535 {
		return errors.New("api.port must be 1..65535")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.DNS.MaxZoneNameLen <= 0 {
		cfg.DNS.MaxZoneNameLen = 255
	}
	if cfg.DNS.MaxRecordsetNameLen <= 0 {
		cfg.DNS.MaxRecordsetNameLen = 255
	}
	if cfg.DNS.DefaultTTL <= 0 {
		cfg.DNS.DefaultTTL = 3600
	}
	if cfg.DNS.SOARefresh <= 0 {
		cfg.DNS.SOARefresh = 3600
	}
	if cfg.DNS.SOARetry <= 0 {
		cfg.DNS.SOARetry = 600
	}
	if cfg.DNS.SOAExpire <= 0 {
		cfg.DNS.SOAExpire = 86400
	}
	if cfg.DNS.SOAMinimum <= 0 {
		cfg.DNS.SOAMinimum = 3600
	}

	if cfg.Quota.Zones <= 0 {
		cfg.Quota.Zones = 10
	}
	if cfg.Quota.ZoneRecordsets <= 0 {
		cfg.Quota.ZoneRecordsets = 500
	}
	if cfg.Quota.ZoneRecords <= 0 {
		cfg.Quota.ZoneRecords = 500
	}

	if cfg.Worker.Threads <= 0 {
		cfg.Worker.Threads = 4
	}
	if _, err := cfg.BackendTimeout(); err != nil {
		return fmt.Errorf("worker.backend_timeout: %w", err)
	}

	return nil
}

// StorageTimeout returns the parsed storage call timeout.
func (cfg *Config) StorageTimeout() (time.Duration, error) {
	return parseTimeout(cfg.Storage.CallTimeout, 5*time.Second)
}

// BackendTimeout returns the parsed backend call timeout.
func (cfg *Config) BackendTimeout() (time.Duration, error) {
	return parseTimeout(cfg.Worker.BackendTimeout, 10*time.Second)
}

func parseTimeout(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", raw)
	}
	return d, nil
}
