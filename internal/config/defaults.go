package config

const (
	defaultDataDir           = "~/.local/share/cinelog"
	defaultLogDir            = "~/.local/share/cinelog/logs"
	defaultAPIBind           = "127.0.0.1:8490"
	defaultTMDBBaseURL       = "https://api.themoviedb.org/3"
	defaultTMDBLanguage      = "en-US"
	defaultBatchSize         = 10
	defaultBatchPauseSeconds = 2.5
	defaultConcurrency       = 4
	defaultRateLimitCalls    = 40
	defaultRateWindowSeconds = 10
	defaultCacheTTLSeconds   = 600
	defaultRetryAttempts     = 3
	defaultRequestTimeout    = 10
	defaultPopularityFloor   = 1.0
	defaultSessionTTLDays    = 30
	defaultCleanupHours      = 24
	defaultPollInterval      = 10
	defaultErrorRetry        = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Enrichment: Enrichment{
			BatchSize:             defaultBatchSize,
			BatchPauseSeconds:     defaultBatchPauseSeconds,
			Concurrency:           defaultConcurrency,
			RateLimitCalls:        defaultRateLimitCalls,
			RateWindowSeconds:     defaultRateWindowSeconds,
			CacheTTLSeconds:       defaultCacheTTLSeconds,
			RetryAttempts:         defaultRetryAttempts,
			RequestTimeoutSeconds: defaultRequestTimeout,
			PopularityFloor:       defaultPopularityFloor,
		},
		Sessions: Sessions{
			TTLDays:              defaultSessionTTLDays,
			CleanupIntervalHours: defaultCleanupHours,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetry,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Paths.DataDir == "" {
		c.Paths.DataDir, _ = ExpandPath(def.Paths.DataDir)
	}
	if c.Paths.LogDir == "" {
		c.Paths.LogDir, _ = ExpandPath(def.Paths.LogDir)
	}
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = def.Paths.APIBind
	}
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = def.TMDB.BaseURL
	}
	if c.TMDB.Language == "" {
		c.TMDB.Language = def.TMDB.Language
	}
	if c.Enrichment.BatchSize <= 0 {
		c.Enrichment.BatchSize = def.Enrichment.BatchSize
	}
	if c.Enrichment.BatchPauseSeconds < 0 {
		c.Enrichment.BatchPauseSeconds = def.Enrichment.BatchPauseSeconds
	}
	if c.Enrichment.Concurrency <= 0 {
		c.Enrichment.Concurrency = def.Enrichment.Concurrency
	}
	if c.Enrichment.RateLimitCalls <= 0 {
		c.Enrichment.RateLimitCalls = def.Enrichment.RateLimitCalls
	}
	if c.Enrichment.RateWindowSeconds <= 0 {
		c.Enrichment.RateWindowSeconds = def.Enrichment.RateWindowSeconds
	}
	if c.Enrichment.CacheTTLSeconds <= 0 {
		c.Enrichment.CacheTTLSeconds = def.Enrichment.CacheTTLSeconds
	}
	if c.Enrichment.RetryAttempts <= 0 {
		c.Enrichment.RetryAttempts = def.Enrichment.RetryAttempts
	}
	if c.Enrichment.RequestTimeoutSeconds <= 0 {
		c.Enrichment.RequestTimeoutSeconds = def.Enrichment.RequestTimeoutSeconds
	}
	if c.Enrichment.PopularityFloor <= 0 {
		c.Enrichment.PopularityFloor = def.Enrichment.PopularityFloor
	}
	if c.Sessions.TTLDays <= 0 {
		c.Sessions.TTLDays = def.Sessions.TTLDays
	}
	if c.Sessions.CleanupIntervalHours <= 0 {
		c.Sessions.CleanupIntervalHours = def.Sessions.CleanupIntervalHours
	}
	if c.Workflow.PollInterval <= 0 {
		c.Workflow.PollInterval = def.Workflow.PollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = def.Workflow.ErrorRetryInterval
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}
