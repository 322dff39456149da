package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cinelog/internal/api"
	"cinelog/internal/config"
	"cinelog/internal/enrich"
	"cinelog/internal/logging"
	"cinelog/internal/ratelimit"
	"cinelog/internal/retry"
	"cinelog/internal/session"
	"cinelog/internal/tmdb"
	"cinelog/internal/ttlcache"
	"cinelog/internal/worker"
)

// Daemon coordinates the background services and enforces single-instance
// execution per data directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *session.Store
	worker *worker.Worker
	server *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DBPath       string
	LockFilePath string
	APIAddr      string
	Sessions     session.CountSummary
}

// New constructs a daemon with all dependencies wired.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if err := cfg.RequireTMDBKey(); err != nil {
		return nil, err
	}

	store, err := session.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	tmdbClient, err := tmdb.New(
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
		cfg.TMDB.Language,
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}
	limiter := ratelimit.New(cfg.Enrichment.RateLimitCalls, cfg.RateWindow(), cfg.Enrichment.Concurrency)
	policy := retry.Policy{
		MaxAttempts: cfg.Enrichment.RetryAttempts,
		BaseDelay:   time.Second,
		Classify:    tmdb.IsTransient,
	}
	enricher := enrich.NewClient(tmdbClient, ttlcache.New(), limiter, logger, enrich.Options{
		CacheTTL:        cfg.CacheTTL(),
		PopularityFloor: cfg.Enrichment.PopularityFloor,
		RetryPolicy:     &policy,
	})

	w := worker.New(cfg, store, enricher, logger)
	lockPath := filepath.Join(cfg.Paths.DataDir, "cinelogd.lock")

	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		worker:   w,
		server:   api.New(cfg, store, w, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the worker, API server and
// cleanup loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cinelog daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.worker.Start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start worker: %w", err)
	}
	if err := d.server.Start(runCtx); err != nil {
		d.worker.Stop()
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}

	d.wg.Add(1)
	go d.runCleanup(runCtx)

	d.running.Store(true)
	d.logger.Info("cinelog daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	// The worker drains its in-flight batch before the shared context is
	// released; canceling first would abort enrichment mid-call.
	d.worker.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cinelog daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// runCleanup periodically drops expired sessions and their movies.
func (d *Daemon) runCleanup(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Sessions.CleanupIntervalHours) * time.Hour
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := d.store.DeleteExpired(ctx, time.Now())
			if err != nil {
				d.logger.Warn("session cleanup failed", logging.Error(err))
				continue
			}
			if removed > 0 {
				d.logger.Info("expired sessions removed", logging.Int("count", removed))
			}
		}
	}
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary, err := d.store.CountsByStatus(ctx)
	if err != nil {
		d.logger.Warn("failed to read session counts", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddr:      d.server.Addr(),
		Sessions:     summary,
	}
}
