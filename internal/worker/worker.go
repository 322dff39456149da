package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cinelog/internal/config"
	"cinelog/internal/enrich"
	"cinelog/internal/logging"
	"cinelog/internal/retry"
	"cinelog/internal/session"
)

// Enricher is the lookup dependency the worker drives.
type Enricher interface {
	Enrich(ctx context.Context, title string, year int) (*enrich.Result, bool, error)
}

// ErrUnknownSession is returned when a trigger names a session that does not exist.
var ErrUnknownSession = errors.New("unknown session")

// ErrSessionTerminal is returned when a trigger names a completed or failed session.
var ErrSessionTerminal = errors.New("session already finished")

// Worker owns the background enrichment loop.
type Worker struct {
	store  *session.Store
	client Enricher
	logger *slog.Logger

	batchSize    int
	batchPause   time.Duration
	concurrency  int
	pollInterval time.Duration
	errorRetry   time.Duration
	sessionTTL   time.Duration

	mu       sync.Mutex
	running  bool
	runCtx   context.Context
	cancel   context.CancelFunc
	stop     chan struct{}
	wg       sync.WaitGroup
	inflight map[string]struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a worker from configuration. The enricher is injected so tests
// can run cycles without a provider.
func New(cfg *config.Config, store *session.Store, client Enricher, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		client:       client,
		logger:       logging.NewComponentLogger(logger, "worker"),
		batchSize:    cfg.Enrichment.BatchSize,
		batchPause:   cfg.BatchPause(),
		concurrency:  cfg.Enrichment.Concurrency,
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		sessionTTL:   cfg.SessionTTL(),
		stop:         make(chan struct{}),
		inflight:     make(map[string]struct{}),
		sleep:        retry.SleepWithContext,
	}
}

// Start begins background processing.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.runCtx = runCtx
	w.cancel = cancel
	w.stop = make(chan struct{})
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.run(runCtx)
	return nil
}

// Stop requests a graceful shutdown: no new batch is started, the in-flight
// batch drains, and only then is the run context released.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	stop := w.stop
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	close(stop)
	w.wg.Wait()
	cancel()
}

func (w *Worker) stopChan() chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop
}

func (w *Worker) stopRequested() bool {
	select {
	case <-w.stopChan():
		return true
	default:
		return false
	}
}

// wait runs the injectable sleep under a context that a stop request also
// cancels, so shutdown does not linger through poll gaps or batch pauses.
func (w *Worker) wait(ctx context.Context, d time.Duration) error {
	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	go func() {
		select {
		case <-w.stopChan():
			cancelWait()
		case <-waitCtx.Done():
		}
	}()
	return w.sleep(waitCtx, d)
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		if w.stopRequested() || ctx.Err() != nil {
			return
		}

		sessions, err := w.store.SessionsByStatus(ctx, session.StatusEnriching)
		if err != nil {
			w.logger.Error("failed to fetch enriching sessions",
				logging.Error(err),
				logging.String(logging.FieldEventType, "session_fetch_failed"),
			)
			if w.wait(ctx, w.errorRetry) != nil {
				return
			}
			continue
		}

		for _, sess := range sessions {
			w.launch(sess.ID)
		}

		if w.wait(ctx, w.pollInterval) != nil {
			return
		}
	}
}

// EnrichSession moves a session into the enriching state and schedules a
// cycle for it immediately. Safe to call for a session the poll loop is
// already working on; the in-flight guard keeps cycles exclusive.
func (w *Worker) EnrichSession(ctx context.Context, id string) error {
	sess, err := w.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrUnknownSession
	}
	if sess.Status.IsTerminal() {
		return ErrSessionTerminal
	}
	if sess.Status != session.StatusEnriching {
		if err := w.store.SetStatus(ctx, id, session.StatusEnriching); err != nil {
			return err
		}
	}

	w.launch(id)
	return nil
}

// launch starts a cycle goroutine unless one is already running for the
// session. The cycle runs under the worker's own context, never a caller's:
// a trigger such as an HTTP request may be gone long before the cycle ends.
func (w *Worker) launch(id string) {
	w.mu.Lock()
	if _, busy := w.inflight[id]; busy {
		w.mu.Unlock()
		return
	}
	ctx := w.runCtx
	w.inflight[id] = struct{}{}
	w.wg.Add(1)
	w.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, id)
			w.mu.Unlock()
		}()
		w.processSession(ctx, id)
	}()
}

func (w *Worker) processSession(ctx context.Context, id string) {
	logger := logging.WithSession(w.logger, id)

	err := w.runCycle(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Info("enrichment interrupted; session resumes on next poll")
	default:
		logger.Error("enrichment cycle failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "cycle_failed"),
		)
		if failErr := w.store.FailSession(ctx, id, err.Error()); failErr != nil {
			logger.Error("failed to record session failure", logging.Error(failErr))
		}
	}
}
