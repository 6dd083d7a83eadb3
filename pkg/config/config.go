package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is used for config, data and env variable names.
const AppName = "thebanscraper"

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "THEBAN_"

// Config holds all configuration options for the scraper
type Config struct {
	// Remote site settings
	Site SiteConfig `yaml:"site" json:"site"`

	// Request pacing and retries
	Politeness PolitenessConfig `yaml:"politeness" json:"politeness"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download record settings
	Record RecordConfig `yaml:"record" json:"record"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig describes the documentation site being scraped
type SiteConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	IndexPath     string        `yaml:"index_path" json:"index_path"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RespectRobots bool          `yaml:"respect_robots" json:"respect_robots"`
}

// PolitenessConfig controls the minimum delay between requests and retries.
// The delay applies to every request, retries included.
type PolitenessConfig struct {
	Delay      time.Duration `yaml:"delay" json:"delay"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	WriteManifest bool   `yaml:"write_manifest" json:"write_manifest"`
}

// RecordConfig controls whether the download record outlives a run
type RecordConfig struct {
	Persist bool   `yaml:"persist" json:"persist"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "https://thebanmappingproject.com",
			IndexPath:     "/valley-kings",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			Timeout:       30 * time.Second,
			RespectRobots: true,
		},
		Politeness: PolitenessConfig{
			Delay:      time.Second,
			MaxRetries: 3,
		},
		Output: OutputConfig{
			BaseDirectory: ".",
			WriteManifest: true,
		},
		Record: RecordConfig{
			Persist: false,
			Path:    "",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// IndexURL joins the base URL and the index path.
func (c *Config) IndexURL() string {
	return strings.TrimRight(c.Site.BaseURL, "/") + "/" + strings.TrimLeft(c.Site.IndexPath, "/")
}

// RecordPath returns the SQLite record location, defaulting to the XDG data dir.
func (c *Config) RecordPath() string {
	if c.Record.Path != "" {
		return c.Record.Path
	}
	return filepath.Join(xdg.DataHome, AppName, "record.db")
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.Site.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "RESPECT_ROBOTS"); v != "" {
		c.Site.RespectRobots = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(EnvPrefix + "DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sDELAY: %w", EnvPrefix, err))
		} else {
			c.Politeness.Delay = d
		}
	}
	if v := os.Getenv(EnvPrefix + "MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_RETRIES: %w", EnvPrefix, err))
		} else {
			c.Politeness.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv(EnvPrefix + "PERSIST_RECORD"); v != "" {
		c.Record.Persist = strings.ToLower(v) == "true"
	}
	if v := os.Getenv(EnvPrefix + "RECORD_PATH"); v != "" {
		c.Record.Path = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in the standard locations
func FindConfigFile() string {
	locations := []string{
		"." + AppName + ".yaml",
		"." + AppName + ".yml",
		filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, AppName, "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	} else if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site base URL %q is not an absolute URL", c.Site.BaseURL))
	}
	if c.Site.IndexPath == "" {
		errs = append(errs, errors.New("site index path is required"))
	}
	if c.Site.Timeout <= 0 {
		errs = append(errs, errors.New("site timeout must be positive"))
	}

	if c.Politeness.Delay < 0 {
		errs = append(errs, errors.New("politeness delay cannot be negative"))
	}
	if c.Politeness.MaxRetries < 0 || c.Politeness.MaxRetries > 10 {
		errs = append(errs, errors.New("max retries must be between 0 and 10"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Flags carries command line overrides. Zero values mean "not set".
type Flags struct {
	OutputDir     string
	Delay         time.Duration
	MaxRetries    *int
	LogLevel      string
	PersistRecord bool
	NoRobots      bool
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags Flags) {
	if flags.OutputDir != "" {
		c.Output.BaseDirectory = flags.OutputDir
	}
	if flags.Delay > 0 {
		c.Politeness.Delay = flags.Delay
	}
	if flags.MaxRetries != nil {
		c.Politeness.MaxRetries = *flags.MaxRetries
	}
	if flags.LogLevel != "" {
		c.Logging.Level = flags.LogLevel
	}
	if flags.PersistRecord {
		c.Record.Persist = true
	}
	if flags.NoRobots {
		c.Site.RespectRobots = false
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags Flags) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(xdg.ConfigHome, AppName, ".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
