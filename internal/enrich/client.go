package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"cinelog/internal/logging"
	"cinelog/internal/ratelimit"
	"cinelog/internal/retry"
	"cinelog/internal/tmdb"
	"cinelog/internal/ttlcache"
)

// Normalization policy constants.
const (
	DefaultCacheTTL        = 10 * time.Minute
	DefaultPopularityFloor = 1.0
	maxDirectors           = 3
	maxCast                = 10
)

// Client performs the three-step enrichment lookup. Every provider call goes
// through the cache first, then the rate limiter, then the retry policy.
type Client struct {
	api     tmdb.API
	cache   *ttlcache.Cache
	limiter *ratelimit.Limiter
	policy  retry.Policy
	logger  *slog.Logger

	cacheTTL        time.Duration
	popularityFloor float64
}

// Options tunes client behavior; zero values fall back to defaults.
type Options struct {
	CacheTTL        time.Duration
	PopularityFloor float64
	RetryPolicy     *retry.Policy
}

// NewClient builds an enrichment client over the given collaborators. The
// cache and limiter are long-lived shared components owned by the caller.
func NewClient(api tmdb.API, cache *ttlcache.Cache, limiter *ratelimit.Limiter, logger *slog.Logger, opts Options) *Client {
	c := &Client{
		api:             api,
		cache:           cache,
		limiter:         limiter,
		logger:          logging.NewComponentLogger(logger, "enrich"),
		cacheTTL:        opts.CacheTTL,
		popularityFloor: opts.PopularityFloor,
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = DefaultCacheTTL
	}
	if c.popularityFloor <= 0 {
		c.popularityFloor = DefaultPopularityFloor
	}
	if opts.RetryPolicy != nil {
		c.policy = *opts.RetryPolicy
	} else {
		c.policy = retry.Default(tmdb.IsTransient)
	}
	return c
}

// Enrich looks up title (and year, when positive) and returns the
// normalized record. A false second return means the movie could not be
// enriched: no usable search candidate, or the provider does not know it.
// That is a normal outcome, distinct from an error, which signals a
// transient or systemic fault the caller should handle.
func (c *Client) Enrich(ctx context.Context, title string, year int) (*Result, bool, error) {
	resp, err := c.search(ctx, title, year)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	best := selectBest(resp.Results, year, c.popularityFloor)
	if best == nil {
		c.logger.Debug("no search candidate",
			logging.String("title", title),
			logging.Int("year", year),
		)
		return nil, false, nil
	}

	details, err := c.details(ctx, best.ID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	credits, err := c.credits(ctx, best.ID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			// Missing credits still yield a usable record.
			credits = &tmdb.Credits{}
		} else {
			return nil, false, err
		}
	}

	result := normalize(details, credits)
	c.logger.Debug("enriched",
		logging.String("title", title),
		logging.Int64("tmdb_id", result.TMDBID),
	)
	return result, true, nil
}

func (c *Client) search(ctx context.Context, title string, year int) (*tmdb.SearchResponse, error) {
	key := ttlcache.Key("search", title, strconv.Itoa(year))
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*tmdb.SearchResponse), nil
	}
	var resp *tmdb.SearchResponse
	err := c.call(ctx, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.SearchMovie(ctx, title, year)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, resp, c.cacheTTL)
	return resp, nil
}

func (c *Client) details(ctx context.Context, movieID int64) (*tmdb.Details, error) {
	key := ttlcache.Key("details", strconv.FormatInt(movieID, 10))
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*tmdb.Details), nil
	}
	var details *tmdb.Details
	err := c.call(ctx, func(ctx context.Context) error {
		var callErr error
		details, callErr = c.api.GetMovieDetails(ctx, movieID)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, details, c.cacheTTL)
	return details, nil
}

func (c *Client) credits(ctx context.Context, movieID int64) (*tmdb.Credits, error) {
	key := ttlcache.Key("credits", strconv.FormatInt(movieID, 10))
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*tmdb.Credits), nil
	}
	var credits *tmdb.Credits
	err := c.call(ctx, func(ctx context.Context) error {
		var callErr error
		credits, callErr = c.api.GetMovieCredits(ctx, movieID)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, credits, c.cacheTTL)
	return credits, nil
}

// call runs a single provider operation under the retry policy; each
// attempt independently passes through the rate limiter, so retries consume
// window budget like any other call.
func (c *Client) call(ctx context.Context, op func(context.Context) error) error {
	return c.policy.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}
		defer c.limiter.Release()
		return op(ctx)
	})
}
