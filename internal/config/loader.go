// Package config provides configuration management for the oddslab toolkit.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// Environment variable placeholders in the YAML file (${VAR_NAME}) are
// expanded before parsing, so api_key: ${THE_ODDS_API_KEY} works.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration, filling defaults for optional fields
// and tolerating a missing file so env-only setups keep working.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ODDSLAB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "oddslab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com")
	v.SetDefault("odds_api.regions", "eu")
	v.SetDefault("odds_api.timeout_seconds", 15)
	v.SetDefault("odds_api.max_retries", 3)
	v.SetDefault("odds_api.rate_limit_per_second", 2.0)
	v.SetDefault("odds_api.scores_cache_ttl_seconds", 300)

	v.SetDefault("analysis.hours_ahead", 48)
	v.SetDefault("analysis.priority_window_hours", 12)
	v.SetDefault("analysis.markets", []string{"1X", "X2", "TOTALS"})
	v.SetDefault("analysis.min_bookmakers_for_bdi", 3)

	v.SetDefault("results.days_from", 3)

	v.SetDefault("output.dir", "data")
	v.SetDefault("output.report_dir", "reports")
	v.SetDefault("output.timezone", "Europe/Madrid")

	v.SetDefault("schedule.scan_interval_seconds", 1800)
	v.SetDefault("schedule.results_sync_cron", "0 6 * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.health_port", 8081)

	v.SetDefault("stream.enabled", false)
	v.SetDefault("stream.port", 8090)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 5)
}
