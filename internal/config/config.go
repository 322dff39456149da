package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Enrichment contains tuning for the enrichment pipeline.
type Enrichment struct {
	BatchSize             int     `toml:"batch_size"`
	BatchPauseSeconds     float64 `toml:"batch_pause_seconds"`
	Concurrency           int     `toml:"concurrency"`
	RateLimitCalls        int     `toml:"rate_limit_calls"`
	RateWindowSeconds     int     `toml:"rate_window_seconds"`
	CacheTTLSeconds       int     `toml:"cache_ttl_seconds"`
	RetryAttempts         int     `toml:"retry_attempts"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	PopularityFloor       float64 `toml:"popularity_floor"`
}

// Sessions contains session lifecycle configuration.
type Sessions struct {
	TTLDays              int `toml:"ttl_days"`
	CleanupIntervalHours int `toml:"cleanup_interval_hours"`
}

// Workflow contains daemon timing and intervals.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths      Paths      `toml:"paths"`
	TMDB       TMDB       `toml:"tmdb"`
	Enrichment Enrichment `toml:"enrichment"`
	Sessions   Sessions   `toml:"sessions"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the expected configuration file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cinelog", "config.toml"), nil
}

// Load reads the configuration from path (or the default location when path
// is empty), applies defaults for missing fields, and validates the result.
// The second return reports the resolved path, the third whether the file
// existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	exists := false
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		exists = true
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if path != "" {
			return nil, resolved, false, fmt.Errorf("config file %s not found", resolved)
		}
	default:
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, resolved, exists, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return ExpandPath(path)
	}
	return DefaultConfigPath()
}

// EnsureDirectories creates the data and log directories when missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// BatchPause returns the inter-batch pause as a duration.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.Enrichment.BatchPauseSeconds * float64(time.Second))
}

// CacheTTL returns the provider response cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Enrichment.CacheTTLSeconds) * time.Second
}

// RateWindow returns the sliding rate-limit window length.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Enrichment.RateWindowSeconds) * time.Second
}

// RequestTimeout returns the per-call provider timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Enrichment.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the session expiry extension interval.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Sessions.TTLDays) * 24 * time.Hour
}

func (c *Config) expandPaths() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return err
	}
	return nil
}

// ExpandPath resolves a leading ~ against the current user's home directory.
func ExpandPath(pathValue string) (string, error) {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	resolved, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file %s already exists", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
