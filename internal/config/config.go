// Package config provides configuration management for the oddslab toolkit.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	OddsAPI  OddsAPIConfig  `mapstructure:"odds_api" validate:"required"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	Results  ResultsConfig  `mapstructure:"results" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Output   OutputConfig   `mapstructure:"output" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
	Stream   StreamConfig   `mapstructure:"stream"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// LeagueConfig maps one configured competition to its odds API sport key.
type LeagueConfig struct {
	SportKey string `mapstructure:"sport_key" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	Country  string `mapstructure:"country"`
}

// OddsAPIConfig represents The Odds API client configuration
type OddsAPIConfig struct {
	BaseURL               string         `mapstructure:"base_url" validate:"required,url"`
	APIKey                string         `mapstructure:"api_key"`
	Regions               string         `mapstructure:"regions" validate:"required"`
	Bookmakers            []string       `mapstructure:"bookmakers" validate:"required,min=1"`
	Leagues               []LeagueConfig `mapstructure:"leagues" validate:"required,min=1,dive"`
	TimeoutSeconds        int            `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries            int            `mapstructure:"max_retries" validate:"gte=0"`
	RateLimitPerSecond    float64        `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	ScoresCacheTTLSeconds int            `mapstructure:"scores_cache_ttl_seconds" validate:"required,gt=0"`
}

// AnalysisConfig represents market scanning configuration
type AnalysisConfig struct {
	HoursAhead          int      `mapstructure:"hours_ahead" validate:"required,gt=0,lte=336"`
	PriorityWindowHours int      `mapstructure:"priority_window_hours" validate:"required,gt=0"`
	MinProbability      float64  `mapstructure:"min_probability" validate:"gte=0,lte=1"`
	MinPrice            float64  `mapstructure:"min_price" validate:"gte=0"`
	Markets             []string `mapstructure:"markets" validate:"required,min=1,markets"`
	MinBookmakersForBDI int      `mapstructure:"min_bookmakers_for_bdi" validate:"required,gte=2"`
}

// ResultsConfig represents outcome reconciliation configuration
type ResultsConfig struct {
	DaysFrom int `mapstructure:"days_from" validate:"required,gte=1,lte=3"`
}

// DatabaseConfig represents the optional Postgres archive configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"omitempty,gt=0"`
}

// OutputConfig represents where CSV files and reports are written
type OutputConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	ReportDir string `mapstructure:"report_dir" validate:"required"`
	Timezone  string `mapstructure:"timezone" validate:"required"`
}

// ScheduleConfig represents watch-mode scheduling
type ScheduleConfig struct {
	ScanIntervalSeconds int    `mapstructure:"scan_interval_seconds" validate:"required,gt=0"`
	ResultsSyncCron     string `mapstructure:"results_sync_cron" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Port       int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path       string `mapstructure:"path" validate:"required"`
	HealthPort int    `mapstructure:"health_port" validate:"required,min=1,max=65535"`
}

// StreamConfig represents the live websocket broadcast configuration
type StreamConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// APITimeout returns the odds API request timeout as a duration.
func (c *OddsAPIConfig) APITimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScoresCacheTTL returns the scores cache TTL as a duration.
func (c *OddsAPIConfig) ScoresCacheTTL() time.Duration {
	return time.Duration(c.ScoresCacheTTLSeconds) * time.Second
}

// AnalysisHorizon returns the scan window as a duration.
func (c *AnalysisConfig) AnalysisHorizon() time.Duration {
	return time.Duration(c.HoursAhead) * time.Hour
}

// PriorityWindow returns the near-match priority window as a duration.
func (c *AnalysisConfig) PriorityWindow() time.Duration {
	return time.Duration(c.PriorityWindowHours) * time.Hour
}
