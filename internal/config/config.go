package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50" validate:"min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25" validate:"min=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// DataConfig names the CSV datasets and the output directory for
// exported merge artifacts. Paths are resolved relative to Dir unless
// absolute.
type DataConfig struct {
	Dir            string `yaml:"dir" envconfig:"DIR" default:"data/csv" validate:"required"`
	GPSFile        string `yaml:"gps_file" envconfig:"GPS_FILE" default:"gps_data.csv"`
	RecoveryFile   string `yaml:"recovery_file" envconfig:"RECOVERY_FILE" default:"recovery_status.csv"`
	CapabilityFile string `yaml:"capability_file" envconfig:"CAPABILITY_FILE" default:"physical_capability.csv"`
	PriorityFile   string `yaml:"priority_file" envconfig:"PRIORITY_FILE" default:"individual_priority_areas.csv"`
	CalendarFile   string `yaml:"calendar_file" envconfig:"CALENDAR_FILE" default:"club_calendar.csv"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output/csv"`
}

// AnalysisConfig tunes the summarizer
type AnalysisConfig struct {
	ForestTrees    int   `yaml:"forest_trees" envconfig:"FOREST_TREES" default:"100" validate:"min=1"`
	ForestSeed     int64 `yaml:"forest_seed" envconfig:"FOREST_SEED" default:"42"`
	ForestMinLeaf  int   `yaml:"forest_min_leaf" envconfig:"FOREST_MIN_LEAF" default:"5" validate:"min=1"`
	ForestMaxDepth int   `yaml:"forest_max_depth" envconfig:"FOREST_MAX_DEPTH" default:"10" validate:"min=1"`
}

// Load loads configuration from environment variables and config file.
// Environment variables (prefix PITCHPULSE) take precedence over the file.
func Load() (*Config, error) {
	return LoadWithPath(configFilePath())
}

// LoadWithPath loads configuration using an explicit config file path.
func LoadWithPath(configFile string) (*Config, error) {
	var cfg Config

	// File values first, env overrides on top
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", configFile, err)
			}
		}
	}

	if err := envconfig.Process("PITCHPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// DatasetPath resolves the path of a dataset file against the data dir.
func (c *Config) DatasetPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Data.Dir, name)
}

// GPSPath returns the resolved GPS dataset path.
func (c *Config) GPSPath() string { return c.DatasetPath(c.Data.GPSFile) }

// RecoveryPath returns the resolved recovery dataset path.
func (c *Config) RecoveryPath() string { return c.DatasetPath(c.Data.RecoveryFile) }

// CapabilityPath returns the resolved capability dataset path.
func (c *Config) CapabilityPath() string { return c.DatasetPath(c.Data.CapabilityFile) }

// PriorityPath returns the resolved priority-goals dataset path.
func (c *Config) PriorityPath() string { return c.DatasetPath(c.Data.PriorityFile) }

// CalendarPath returns the resolved calendar dataset path.
func (c *Config) CalendarPath() string { return c.DatasetPath(c.Data.CalendarFile) }

// configFilePath returns the default config file location, overridable
// via PITCHPULSE_CONFIG.
func configFilePath() string {
	if p := os.Getenv("PITCHPULSE_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
