// Package config loads postdesk settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = "POSTDESK_CONFIG"

// DefaultPath is used when neither --config nor POSTDESK_CONFIG is set.
const DefaultPath = "postdesk.yaml"

// Prefs backends.
const (
	PrefsFile   = "file"
	PrefsSQLite = "sqlite"
	PrefsRedis  = "redis"
	PrefsMemory = "memory"
)

// ValidPrefsBackends lists every supported prefs backend.
var ValidPrefsBackends = []string{PrefsFile, PrefsSQLite, PrefsRedis, PrefsMemory}

// Config holds all postdesk configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Web     WebConfig     `yaml:"web"`
	TUI     TUIConfig     `yaml:"tui"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures outbound Posts API calls.
type APIConfig struct {
	Timeout string `yaml:"timeout"`
	Metrics bool   `yaml:"metrics"`
}

// PrefsConfig selects where the API base URL is remembered.
type PrefsConfig struct {
	Backend string      `yaml:"backend"` // file, sqlite, redis, memory
	Path    string      `yaml:"path"`    // file and sqlite; empty means the user config dir
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig is used by the redis prefs backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// WebConfig configures the browser front end.
type WebConfig struct {
	Addr string `yaml:"addr"`
	// Sandbox starts an in-process Posts API next to the web server.
	Sandbox bool `yaml:"sandbox"`
}

// TUIConfig configures the terminal front end.
type TUIConfig struct {
	Markdown bool   `yaml:"markdown"`
	LogFile  string `yaml:"log_file"`
}

// SandboxConfig configures the development Posts API.
type SandboxConfig struct {
	Addr       string  `yaml:"addr"`
	Prefix     string  `yaml:"prefix"`
	DataFile   string  `yaml:"data_file"`
	Latency    string  `yaml:"latency"`
	FailRate   float64 `yaml:"fail_rate"`
	FailStatus int     `yaml:"fail_status"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout: "10s",
			Metrics: true,
		},
		Prefs: PrefsConfig{
			Backend: PrefsFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "postdesk:",
			},
		},
		Web: WebConfig{
			Addr: "127.0.0.1:8080",
		},
		TUI: TUIConfig{
			Markdown: true,
			LogFile:  "postdesk-tui.log",
		},
		Sandbox: SandboxConfig{
			Addr:       "127.0.0.1:5002",
			Prefix:     "/api",
			Latency:    "0s",
			FailStatus: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("POSTDESK_PREFS_BACKEND")); v != "" {
		c.Prefs.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("POSTDESK_PREFS_PATH")); v != "" {
		c.Prefs.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTDESK_REDIS_ADDR")); v != "" {
		c.Prefs.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTDESK_WEB_ADDR")); v != "" {
		c.Web.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("POSTDESK_LOG_LEVEL")); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("POSTDESK_API_TIMEOUT")); v != "" {
		c.API.Timeout = v
	}
}

// APITimeout returns the per-request timeout for Posts API calls.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// SandboxLatency returns the artificial delay added to sandbox responses.
func (c *Config) SandboxLatency() time.Duration {
	d, err := time.ParseDuration(c.Sandbox.Latency)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for values no component can use.
func (c *Config) Validate() error {
	if !contains(ValidPrefsBackends, c.Prefs.Backend) {
		return fmt.Errorf("config: invalid prefs backend %q (valid: %v)", c.Prefs.Backend, ValidPrefsBackends)
	}
	if c.Prefs.Backend == PrefsRedis && strings.TrimSpace(c.Prefs.Redis.Addr) == "" {
		return fmt.Errorf("config: prefs backend redis requires prefs.redis.addr")
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("config: invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	if c.Sandbox.Latency != "" {
		if _, err := time.ParseDuration(c.Sandbox.Latency); err != nil {
			return fmt.Errorf("config: invalid sandbox.latency %q: %w", c.Sandbox.Latency, err)
		}
	}
	if c.Sandbox.FailRate < 0 || c.Sandbox.FailRate > 1 {
		return fmt.Errorf("config: sandbox.fail_rate must be within [0,1], got %v", c.Sandbox.FailRate)
	}
	if c.Sandbox.FailStatus < 400 || c.Sandbox.FailStatus > 599 {
		return fmt.Errorf("config: sandbox.fail_status must be a 4xx or 5xx code, got %d", c.Sandbox.FailStatus)
	}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("config: invalid logging.level %q (valid: %v)", c.Logging.Level, validLevels)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("config: invalid logging.format %q (valid: json, console)", c.Logging.Format)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
