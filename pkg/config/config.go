package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a harvesting run
type Config struct {
	Feed      FeedConfig      `yaml:"feed" json:"feed"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	Catalog   CatalogConfig   `yaml:"catalog" json:"catalog"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	Journal   JournalConfig   `yaml:"journal" json:"journal"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// FeedConfig describes the scrolled feed and the site around it
type FeedConfig struct {
	URL         string        `yaml:"url" json:"url"`
	HomeURL     string        `yaml:"home_url" json:"home_url"`
	LoginURL    string        `yaml:"login_url" json:"login_url"`
	ScrollDelay time.Duration `yaml:"scroll_delay" json:"scroll_delay"`
}

// SessionConfig holds login credentials and cookie persistence
type SessionConfig struct {
	CookiePath  string        `yaml:"cookie_path" json:"cookie_path"`
	Username    string        `yaml:"username" json:"username"`
	Password    string        `yaml:"password" json:"-"`
	Account     string        `yaml:"account" json:"account"`
	SettleDelay time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// CatalogConfig holds the remote catalog connection and property names
type CatalogConfig struct {
	Enabled    bool               `yaml:"enabled" json:"enabled"`
	Token      string             `yaml:"token" json:"-"`
	DatabaseID string             `yaml:"database_id" json:"database_id"`
	Properties CatalogPropertyMap `yaml:"properties" json:"properties"`
	PageSize   int                `yaml:"page_size" json:"page_size"`
}

// CatalogPropertyMap names the database columns items are written to
type CatalogPropertyMap struct {
	Title      string `yaml:"title" json:"title"`
	URL        string `yaml:"url" json:"url"`
	ExternalID string `yaml:"external_id" json:"external_id"`
	Tags       string `yaml:"tags" json:"tags"`
}

// CacheConfig holds the local asset cache settings
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	CoversDir       string        `yaml:"covers_dir" json:"covers_dir"`
	MediaDir        string        `yaml:"media_dir" json:"media_dir"`
	MetadataDir     string        `yaml:"metadata_dir" json:"metadata_dir"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
}

// RetryConfig controls backoff for transient catalog failures
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
}

// RateLimitConfig throttles catalog API calls
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// BrowserConfig holds the headless browser settings
type BrowserConfig struct {
	Headless  bool          `yaml:"headless" json:"headless"`
	ExecPath  string        `yaml:"exec_path" json:"exec_path"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// JournalConfig holds the run journal location
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`

	// NoConsole keeps stderr free while a full screen dashboard runs.
	NoConsole bool `yaml:"-" json:"-"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:         "https://9gag.com/",
			HomeURL:     "https://9gag.com/",
			LoginURL:    "https://9gag.com/login",
			ScrollDelay: 500 * time.Millisecond,
		},
		Session: SessionConfig{
			CookiePath:  "./dump/cookies.json",
			SettleDelay: 3 * time.Second,
		},
		Catalog: CatalogConfig{
			Enabled: true,
			Properties: CatalogPropertyMap{
				Title:      "Name",
				URL:        "URL",
				ExternalID: "9gag id",
				Tags:       "Post Section",
			},
			PageSize: 100,
		},
		Cache: CacheConfig{
			Enabled:         true,
			CoversDir:       "./dump/covers",
			MediaDir:        "./dump/memes",
			DownloadTimeout: 60 * time.Second,
			UserAgent:       defaultUserAgent,
		},
		Retry: RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 30 * time.Second,
			Multiplier:   2,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 3,
			Burst:             1,
		},
		Browser: BrowserConfig{
			Headless:  true,
			UserAgent: defaultUserAgent,
			Timeout:   2 * time.Minute,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./dump/gagsync.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// envString maps an environment variable onto a string field. Later names win.
func envString(dst *string, names ...string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func envBool(dst *bool, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = b
	return nil
}

func envDuration(dst *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// The GAGSYNC_* names take precedence over the short legacy names.
func (c *Config) LoadFromEnv() error {
	envString(&c.Feed.URL, "9GAG_URL", "GAGSYNC_FEED_URL")
	envString(&c.Session.Username, "USERNAME", "GAGSYNC_USERNAME")
	envString(&c.Session.Password, "PASSWORD", "GAGSYNC_PASSWORD")
	envString(&c.Session.Account, "GAGSYNC_ACCOUNT")
	envString(&c.Session.CookiePath, "GAGSYNC_COOKIE_PATH")
	envString(&c.Catalog.Token, "NOTION_TOKEN", "GAGSYNC_NOTION_TOKEN")
	envString(&c.Catalog.DatabaseID, "NOTION_DATABASE", "GAGSYNC_NOTION_DATABASE")
	envString(&c.Cache.CoversDir, "COVERS_PATH", "GAGSYNC_COVERS_DIR")
	envString(&c.Cache.MediaDir, "MEMES_PATH", "GAGSYNC_MEDIA_DIR")
	envString(&c.Cache.MetadataDir, "GAGSYNC_METADATA_DIR")
	envString(&c.Browser.ExecPath, "GAGSYNC_CHROME_PATH")
	envString(&c.Journal.Path, "GAGSYNC_JOURNAL_PATH")
	envString(&c.Logging.Level, "GAGSYNC_LOG_LEVEL")
	envString(&c.Logging.File, "GAGSYNC_LOG_FILE")

	var errs []error
	errs = append(errs,
		envBool(&c.Browser.Headless, "GAGSYNC_HEADLESS"),
		envBool(&c.Journal.Enabled, "GAGSYNC_JOURNAL"),
		envDuration(&c.Feed.ScrollDelay, "GAGSYNC_SCROLL_DELAY"),
		envDuration(&c.Retry.InitialDelay, "GAGSYNC_RETRY_DELAY"),
	)

	if rps := os.Getenv("GAGSYNC_REQUESTS_PER_SECOND"); rps != "" {
		val, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("GAGSYNC_REQUESTS_PER_SECOND: %w", err))
		} else if val > 0 {
			c.RateLimit.RequestsPerSecond = val
		}
	}

	if attempts := os.Getenv("GAGSYNC_RETRY_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			errs = append(errs, fmt.Errorf("GAGSYNC_RETRY_ATTEMPTS: %w", err))
		} else if val > 0 {
			c.Retry.MaxAttempts = val
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
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

// FindConfigFile searches for a config file in the standard locations and
// returns the first one present, or "".
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".gagsync.yaml",
		".gagsync.yml",
		filepath.Join(home, ".config", "gagsync", "config.yaml"),
		filepath.Join(home, ".config", "gagsync", "config.yml"),
		filepath.Join(home, ".gagsync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultPath is where `config init` writes a new file.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "gagsync", "config.yaml")
}

// Validate checks if the configuration is valid for a run
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed URL is required"))
	}
	if c.Feed.ScrollDelay < 0 {
		errs = append(errs, errors.New("scroll delay cannot be negative"))
	}
	if c.Session.CookiePath == "" {
		errs = append(errs, errors.New("cookie path is required"))
	}

	if c.Catalog.Enabled {
		if c.Catalog.Token == "" {
			errs = append(errs, errors.New("catalog token is required (NOTION_TOKEN)"))
		}
		if c.Catalog.DatabaseID == "" {
			errs = append(errs, errors.New("catalog database id is required (NOTION_DATABASE)"))
		}
		p := c.Catalog.Properties
		if p.Title == "" || p.URL == "" || p.ExternalID == "" || p.Tags == "" {
			errs = append(errs, errors.New("all catalog property names must be set"))
		}
		if c.Catalog.PageSize <= 0 || c.Catalog.PageSize > 100 {
			errs = append(errs, errors.New("catalog page size must be between 1 and 100"))
		}
	}

	if c.Cache.Enabled {
		if c.Cache.CoversDir == "" {
			errs = append(errs, errors.New("covers directory is required"))
		}
		if c.Cache.MediaDir == "" {
			errs = append(errs, errors.New("media directory is required"))
		}
		if c.Cache.DownloadTimeout <= 0 {
			errs = append(errs, errors.New("download timeout must be positive"))
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be positive"))
	}
	if c.Retry.InitialDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if debug, ok := flags["debug"].(bool); ok && debug {
		c.Logging.Level = "debug"
		c.Browser.Headless = false
	}
	if quiet, ok := flags["quiet"].(bool); ok && quiet {
		c.Logging.Level = "error"
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Session.Account = account
	}
	if feedURL, ok := flags["feed-url"].(string); ok && feedURL != "" {
		c.Feed.URL = feedURL
	}
	if noRemote, ok := flags["no-remote"].(bool); ok && noRemote {
		c.Catalog.Enabled = false
	}
	if noLocal, ok := flags["no-local"].(bool); ok && noLocal {
		c.Cache.Enabled = false
	}
	if noJournal, ok := flags["no-journal"].(bool); ok && noJournal {
		c.Journal.Enabled = false
	}
	if tui, ok := flags["tui"].(bool); ok && tui {
		c.Logging.NoConsole = true
	}
}

// Read loads configuration from all sources without validating it.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Read(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".gagsync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	return config, nil
}

// Load reads configuration from all sources and validates the result
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Read(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
