package worker

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"cinelog/internal/logging"
	"cinelog/internal/session"
	"cinelog/internal/tmdb"
)

// runCycle takes every pending movie of the session through one enrichment
// attempt, batch by batch. Item-level failures are absorbed: the movie is
// marked processed and counted, and the cycle moves on. Only systemic
// faults (rejected credentials, storage errors) abort the cycle and fail
// the session. A stop request or context cancellation is observed at the
// batch boundary, after the in-flight batch has drained, and leaves the
// session enriching so a later cycle resumes where this one stopped.
func (w *Worker) runCycle(ctx context.Context, id string) error {
	logger := logging.WithSession(w.logger, id)

	// An active session should not expire mid-enrichment.
	if err := w.store.Touch(ctx, id, w.sessionTTL); err != nil {
		return fmt.Errorf("extend session expiry: %w", err)
	}

	pending, err := w.store.PendingMovies(ctx, id)
	if err != nil {
		return fmt.Errorf("load pending movies: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("no pending movies; completing session")
		return w.store.SetStatus(ctx, id, session.StatusCompleted)
	}

	logger.Info("enrichment cycle started",
		logging.Int("pending", len(pending)),
		logging.Int("batch_size", w.batchSize),
	)

	for start := 0; start < len(pending); start += w.batchSize {
		if w.stopRequested() {
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + w.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := w.runBatch(ctx, id, pending[start:end]); err != nil {
			return err
		}

		if end < len(pending) && w.batchPause > 0 {
			if err := w.wait(ctx, w.batchPause); err != nil {
				return err
			}
		}
	}

	logger.Info("enrichment cycle finished", logging.Int("movies", len(pending)))
	return w.store.SetStatus(ctx, id, session.StatusCompleted)
}

func (w *Worker) runBatch(ctx context.Context, id string, batch []*session.Movie) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, movie := range batch {
		movie := movie
		g.Go(func() error {
			return w.enrichMovie(gctx, id, movie)
		})
	}
	return g.Wait()
}

// enrichMovie performs one attempt for one movie. Whatever the outcome, the
// movie is marked processed and the session counter moves with it in the
// same transaction; a movie is never attempted twice.
func (w *Worker) enrichMovie(ctx context.Context, id string, movie *session.Movie) error {
	logger := logging.WithSession(w.logger, id)

	result, ok, err := w.client.Enrich(ctx, movie.Title, movie.ReleaseYear())
	switch {
	case err != nil:
		if errors.Is(err, tmdb.ErrAuthRejected) {
			return fmt.Errorf("enrich %q: %w", movie.Title, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logger.Warn("movie enrichment failed",
			logging.String("title", movie.Title),
			logging.Error(err),
		)
		return w.store.MarkProcessed(ctx, id, movie.ID)

	case !ok:
		logger.Debug("no provider match", logging.String("title", movie.Title))
		return w.store.MarkProcessed(ctx, id, movie.ID)

	default:
		return w.store.SaveEnrichment(ctx, id, movie.ID, result)
	}
}
