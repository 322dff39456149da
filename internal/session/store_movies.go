package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cinelog/internal/enrich"
)

// InsertMovies bulk-inserts parsed rows for a session and bumps the
// session's movie total, all in one transaction.
func (s *Store) InsertMovies(ctx context.Context, sessionID string, movies []*Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO movies (
                session_id, title, year, rating, watched_date, letterboxd_uri,
                rewatch, tags, review, liked
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, movie := range movies {
			if _, err := stmt.ExecContext(ctx,
				sessionID,
				movie.Title,
				nullableInt(movie.Year),
				nullableFloat64(movie.Rating),
				nullableString(movie.WatchedDate),
				nullableString(movie.LetterboxdURI),
				boolToInt(movie.Rewatch),
				nullableString(movie.Tags),
				nullableString(movie.Review),
				boolToInt(movie.Liked),
			); err != nil {
				return fmt.Errorf("insert movie %q: %w", movie.Title, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET total_movies = total_movies + ? WHERE id = ?`,
			len(movies), sessionID,
		); err != nil {
			return fmt.Errorf("bump movie total: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert: %w", err)
		}
		return nil
	})
}

// GetMovie fetches a movie by identifier. A missing movie yields (nil, nil).
func (s *Store) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// PendingMovies returns the session's movies not yet taken through an
// enrichment attempt, in insertion order.
func (s *Store) PendingMovies(ctx context.Context, sessionID string) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE session_id = ? AND processed = 0 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// SessionMovies returns a page of the session's movies in insertion order.
func (s *Store) SessionMovies(ctx context.Context, sessionID string, offset, limit int) ([]*Movie, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE session_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query session movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// CountMovies reports the session's total movie rows.
func (s *Store) CountMovies(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM movies WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

// SaveEnrichment persists a successful lookup, marks the movie processed and
// counts it against the session, all in one transaction.
func (s *Store) SaveEnrichment(ctx context.Context, sessionID string, movieID int64, result *enrich.Result) error {
	if result == nil {
		return errors.New("result is nil")
	}
	if err := s.markMovie(ctx, sessionID,
		`UPDATE movies
         SET tmdb_id = ?, genres = ?, directors = ?, cast_names = ?,
             runtime = ?, budget = ?, revenue = ?, popularity = ?, vote_average = ?,
             original_language = ?, country = ?, enriched = 1, processed = 1
         WHERE id = ? AND processed = 0`,
		result.TMDBID,
		encodeStringList(result.Genres),
		encodeStringList(result.Directors),
		encodeStringList(result.Cast),
		nullableInt(result.Runtime),
		nullableInt64(result.Budget),
		nullableInt64(result.Revenue),
		nullableFloat64(result.Popularity),
		nullableFloat64(result.VoteAverage),
		nullableStringPtr(result.OriginalLanguage),
		nullableStringPtr(result.Country),
		movieID,
	); err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	return nil
}

// MarkProcessed records that a movie went through an enrichment attempt
// without producing a record and counts it against the session. Processed
// movies are never retried.
func (s *Store) MarkProcessed(ctx context.Context, sessionID string, movieID int64) error {
	if err := s.markMovie(ctx, sessionID,
		`UPDATE movies SET processed = 1 WHERE id = ? AND processed = 0`,
		movieID,
	); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// markMovie applies a movie update and bumps the session's enriched counter
// in the same transaction. The processed guard on the movie update makes the
// pair idempotent: a movie moves the counter exactly once, and a crash can
// never leave a processed movie uncounted.
func (s *Store) markMovie(ctx context.Context, sessionID, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin movie tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 1 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE sessions SET enriched_count = enriched_count + 1 WHERE id = ?`,
				sessionID,
			); err != nil {
				return fmt.Errorf("count processed movie: %w", err)
			}
		}
		return tx.Commit()
	})
}
