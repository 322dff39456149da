package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports configuration values that would break the daemon.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}
	if strings.TrimSpace(c.TMDB.BaseURL) == "" {
		problems = append(problems, "tmdb.base_url must be set")
	}
	if c.Enrichment.BatchSize < 1 {
		problems = append(problems, "enrichment.batch_size must be at least 1")
	}
	if c.Enrichment.Concurrency < 1 {
		problems = append(problems, "enrichment.concurrency must be at least 1")
	}
	if c.Enrichment.Concurrency > c.Enrichment.RateLimitCalls {
		problems = append(problems, "enrichment.concurrency must not exceed enrichment.rate_limit_calls")
	}
	if c.Enrichment.RateLimitCalls < 1 || c.Enrichment.RateWindowSeconds < 1 {
		problems = append(problems, "enrichment rate limit requires positive calls and window")
	}
	if c.Enrichment.RetryAttempts < 1 {
		problems = append(problems, "enrichment.retry_attempts must be at least 1")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

// RequireTMDBKey returns an error when no API key is configured. The daemon
// needs it; read-only CLI commands do not.
func (c *Config) RequireTMDBKey() error {
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		return errors.New("tmdb.api_key is required; set it in the config file or TMDB_API_KEY")
	}
	return nil
}
