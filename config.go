package goodday

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hyperengineering/goodday/internal/gdapi"
	"github.com/hyperengineering/goodday/internal/search"
	"github.com/hyperengineering/goodday/internal/store"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config configures the goodday client.
type Config struct {
	// APIToken authenticates with the Goodday API (gd-api-token header).
	APIToken string `yaml:"api_token"`

	// APIBase is the Goodday API base URL.
	// Defaults to https://api.goodday.work/2.0.
	APIBase string `yaml:"api_base"`

	// SearchURL is the full URL of the semantic search proxy.
	SearchURL string `yaml:"search_url"`

	// SearchToken is the bearer token for the search proxy.
	// Only search operations require it.
	SearchToken string `yaml:"search_token"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds each HTTP request. Defaults to 30 seconds.
	Timeout time.Duration `yaml:"timeout"`

	// CachePath is the SQLite directory cache location.
	// "off" disables the cache and every lookup goes to the API.
	CachePath string `yaml:"cache_path"`

	// CacheTTL is how long cached projects and users stay fresh.
	// Defaults to 10 minutes.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RefreshSchedule is a cron spec for background cache refresh.
	// Empty disables scheduled refresh.
	RefreshSchedule string `yaml:"refresh_cron"`

	// Debug enables verbose logging of all API communication.
	Debug bool `yaml:"debug"`

	// DebugLogPath is the path to write logs to. Defaults to stderr.
	DebugLogPath string `yaml:"debug_log"`

	// LogLevel is one of debug, info, warn, error. Defaults to warn.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBase:   gdapi.DefaultBaseURL,
		SearchURL: search.DefaultURL,
		UserAgent: "goodday-mcp/dev",
		Timeout:   30 * time.Second,
		CachePath: store.DefaultCachePath(),
		CacheTTL:  10 * time.Minute,
		LogLevel:  "warn",
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	GOODDAY_API_TOKEN            → APIToken
//	GOODDAY_API_BASE             → APIBase
//	GOODDAY_SEARCH_URL           → SearchURL
//	GOODDAY_SEARCH_BEARER_TOKEN  → SearchToken
//	GOODDAY_CACHE_PATH           → CachePath
//	GOODDAY_CACHE_TTL            → CacheTTL (Go duration)
//	GOODDAY_TIMEOUT              → Timeout (Go duration)
//	GOODDAY_REFRESH_CRON         → RefreshSchedule
//	GOODDAY_DEBUG                → Debug (any non-empty value enables)
//	GOODDAY_DEBUG_LOG            → DebugLogPath
//	GOODDAY_LOG_LEVEL            → LogLevel
//	GOODDAY_METRICS_ADDR         → MetricsAddr
//
// Returns a *ValidationError when a duration variable does not parse.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		APIToken:        os.Getenv("GOODDAY_API_TOKEN"),
		APIBase:         os.Getenv("GOODDAY_API_BASE"),
		SearchURL:       os.Getenv("GOODDAY_SEARCH_URL"),
		SearchToken:     os.Getenv("GOODDAY_SEARCH_BEARER_TOKEN"),
		CachePath:       os.Getenv("GOODDAY_CACHE_PATH"),
		RefreshSchedule: os.Getenv("GOODDAY_REFRESH_CRON"),
		Debug:           os.Getenv("GOODDAY_DEBUG") != "",
		DebugLogPath:    os.Getenv("GOODDAY_DEBUG_LOG"),
		LogLevel:        os.Getenv("GOODDAY_LOG_LEVEL"),
		MetricsAddr:     os.Getenv("GOODDAY_METRICS_ADDR"),
	}

	var err error
	if cfg.CacheTTL, err = envDuration("GOODDAY_CACHE_TTL", "CacheTTL"); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = envDuration("GOODDAY_TIMEOUT", "Timeout"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envDuration(key, field string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ValidationError{Field: field, Message: fmt.Sprintf("%s: %v", key, err)}
	}
	return d, nil
}

// LoadConfigFile reads a YAML config file. A missing file yields a zero
// Config and an error wrapping fs.ErrNotExist.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(store.ExpandHome(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadConfigFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromReader decodes a YAML config from r. Unknown keys are rejected.
// An empty document yields a zero Config.
func LoadConfigFromReader(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given .env files (default ".env")
// into the process environment. Variables already set are not overridden and
// missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}

// Merge returns c with every non-zero field of over applied on top.
func (c Config) Merge(over Config) Config {
	setStr := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setStr(&c.APIToken, over.APIToken)
	setStr(&c.APIBase, over.APIBase)
	setStr(&c.SearchURL, over.SearchURL)
	setStr(&c.SearchToken, over.SearchToken)
	setStr(&c.UserAgent, over.UserAgent)
	setStr(&c.CachePath, over.CachePath)
	setStr(&c.RefreshSchedule, over.RefreshSchedule)
	setStr(&c.DebugLogPath, over.DebugLogPath)
	setStr(&c.LogLevel, over.LogLevel)
	setStr(&c.MetricsAddr, over.MetricsAddr)
	if over.Timeout != 0 {
		c.Timeout = over.Timeout
	}
	if over.CacheTTL != 0 {
		c.CacheTTL = over.CacheTTL
	}
	if over.Debug {
		c.Debug = true
	}
	return c
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return &ValidationError{Field: "APIToken", Message: "required: set GOODDAY_API_TOKEN"}
	}
	if err := validateHTTPURL(c.APIBase); err != nil {
		return &ValidationError{Field: "APIBase", Message: err.Error()}
	}
	if c.SearchURL != "" {
		if err := validateHTTPURL(c.SearchURL); err != nil {
			return &ValidationError{Field: "SearchURL", Message: err.Error()}
		}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "Timeout", Message: "must be non-negative"}
	}
	if c.CacheTTL < 0 {
		return &ValidationError{Field: "CacheTTL", Message: "must be non-negative"}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "LogLevel", Message: fmt.Sprintf("%q is invalid; valid values: debug, info, warn, error", c.LogLevel)}
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return &ValidationError{Field: "RefreshSchedule", Message: err.Error()}
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

// CacheEnabled reports whether the local directory cache is in use.
func (c *Config) CacheEnabled() bool {
	return c.CachePath != "" && !strings.EqualFold(strings.TrimSpace(c.CachePath), "off")
}

// WithDefaults fills in default values for unset fields.
// Cache path resolution: explicit CachePath > GOODDAY_CACHE_PATH env > default.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()

	if c.APIBase == "" {
		c.APIBase = defaults.APIBase
	}
	c.APIBase = strings.TrimSuffix(c.APIBase, "/")
	if c.SearchURL == "" {
		c.SearchURL = defaults.SearchURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
		if c.Debug {
			c.LogLevel = "debug"
		}
	}

	if c.CacheEnabled() || c.CachePath == "" {
		resolved, err := store.ResolveCachePath(c.CachePath)
		switch {
		case err != nil:
			c.CachePath = defaults.CachePath
		case resolved == "":
			c.CachePath = "off"
		default:
			c.CachePath = resolved
		}
	}

	return c
}
