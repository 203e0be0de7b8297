// Package config resolves scraper settings from flags, environment and files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds scraper configuration.
type Config struct {
	SiteURL        string
	APIBase        string
	SortPath       string
	RecordKey      string
	TotalEntries   int
	PageSize       int
	Delay          time.Duration
	RandomDelay    time.Duration
	Timeout        time.Duration
	UserAgent      string
	Accept         string
	AcceptLanguage string
	OutputDir      string
	OutputFormat   string // csv or dual
	ListenAddr     string
	CacheSize      int
	LogLevel       string
	LogPretty      bool
	LogFile        string
}

// DefaultConfig returns the settings the dashboard shipped with.
func DefaultConfig() *Config {
	return &Config{
		SiteURL:        "https://sullygnome.com/",
		APIBase:        "https://sullygnome.com/api/tables/channeltables/getchannels",
		SortPath:       "7/0/1/3/desc",
		RecordKey:      "data",
		TotalEntries:   5000,
		PageSize:       100,
		Delay:          500 * time.Millisecond,
		RandomDelay:    500 * time.Millisecond,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		Accept:         "application/json, text/plain, */*",
		AcceptLanguage: "en-US,en;q=0.9",
		OutputDir:      ".",
		OutputFormat:   "csv",
		ListenAddr:     "127.0.0.1:8050",
		CacheSize:      16,
		LogLevel:       "info",
		LogPretty:      false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateURL("site URL", c.SiteURL); err != nil {
		return err
	}
	if err := validateURL("API base URL", c.APIBase); err != nil {
		return err
	}
	if strings.Trim(c.SortPath, "/") == "" {
		return fmt.Errorf("sort path cannot be empty")
	}
	if c.RecordKey == "" {
		return fmt.Errorf("record key cannot be empty")
	}
	if c.TotalEntries <= 0 {
		return fmt.Errorf("total entries must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv or dual")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	return nil
}

// Origin returns the scheme and host of the site URL, used for the Origin header.
func (c *Config) Origin() string {
	u, err := url.Parse(c.SiteURL)
	if err != nil {
		return strings.TrimSuffix(c.SiteURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

// PageURL composes {APIBase}/{SortPath}/{offset}/{limit}.
func (c *Config) PageURL(offset, limit int) string {
	return fmt.Sprintf("%s/%s/%d/%d",
		strings.TrimSuffix(c.APIBase, "/"),
		strings.Trim(c.SortPath, "/"),
		offset, limit,
	)
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

// Keys understood by Load. Flags, SCRAPER_* environment variables and config
// file entries all use these names.
const (
	KeySiteURL        = "site-url"
	KeyAPIBase        = "api-base"
	KeySortPath       = "sort-path"
	KeyRecordKey      = "record-key"
	KeyTotalEntries   = "total-entries"
	KeyPageSize       = "page-size"
	KeyDelay          = "delay"
	KeyRandomDelay    = "random-delay"
	KeyTimeout        = "timeout"
	KeyUserAgent      = "user-agent"
	KeyOutputDir      = "output-dir"
	KeyOutputFormat   = "format"
	KeyListenAddr     = "listen-addr"
	KeyCacheSize      = "cache-size"
	KeyLogLevel       = "log-level"
	KeyLogPretty      = "log-pretty"
	KeyLogFile        = "log-file"
	KeyConfigFile     = "config"
	EnvPrefix         = "SCRAPER"
	defaultDotEnvFile = ".env"
)

// SetDefaults registers DefaultConfig values on v.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault(KeySiteURL, d.SiteURL)
	v.SetDefault(KeyAPIBase, d.APIBase)
	v.SetDefault(KeySortPath, d.SortPath)
	v.SetDefault(KeyRecordKey, d.RecordKey)
	v.SetDefault(KeyTotalEntries, d.TotalEntries)
	v.SetDefault(KeyPageSize, d.PageSize)
	v.SetDefault(KeyDelay, d.Delay)
	v.SetDefault(KeyRandomDelay, d.RandomDelay)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyUserAgent, d.UserAgent)
	v.SetDefault(KeyOutputDir, d.OutputDir)
	v.SetDefault(KeyOutputFormat, d.OutputFormat)
	v.SetDefault(KeyListenAddr, d.ListenAddr)
	v.SetDefault(KeyCacheSize, d.CacheSize)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogPretty, d.LogPretty)
	v.SetDefault(KeyLogFile, d.LogFile)
}

// Load resolves the configuration from v, which may already have flags bound.
// Precedence follows viper: flags, environment, config file, defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	cfg.SiteURL = v.GetString(KeySiteURL)
	cfg.APIBase = v.GetString(KeyAPIBase)
	cfg.SortPath = v.GetString(KeySortPath)
	cfg.RecordKey = v.GetString(KeyRecordKey)
	cfg.TotalEntries = v.GetInt(KeyTotalEntries)
	cfg.PageSize = v.GetInt(KeyPageSize)
	cfg.Delay = v.GetDuration(KeyDelay)
	cfg.RandomDelay = v.GetDuration(KeyRandomDelay)
	cfg.Timeout = v.GetDuration(KeyTimeout)
	cfg.UserAgent = v.GetString(KeyUserAgent)
	cfg.OutputDir = v.GetString(KeyOutputDir)
	cfg.OutputFormat = strings.ToLower(v.GetString(KeyOutputFormat))
	cfg.ListenAddr = v.GetString(KeyListenAddr)
	cfg.CacheSize = v.GetInt(KeyCacheSize)
	cfg.LogLevel = v.GetString(KeyLogLevel)
	cfg.LogPretty = v.GetBool(KeyLogPretty)
	cfg.LogFile = v.GetString(KeyLogFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv exports variables from a .env file into the process environment.
// A missing file is not an error. Existing variables are not overwritten.
func LoadDotEnv(path string) error {
	if path == "" {
		path = defaultDotEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
