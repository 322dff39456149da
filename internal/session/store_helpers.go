package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const sessionColumns = "id, status, total_movies, enriched_count, error_message, created_at, last_accessed, expires_at"

const movieColumns = "id, session_id, title, year, rating, watched_date, letterboxd_uri, rewatch, tags, review, liked, " +
	"tmdb_id, genres, directors, cast_names, runtime, budget, revenue, popularity, vote_average, original_language, country, enriched, processed"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id            string
		statusStr     string
		totalMovies   int
		enrichedCount int
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		accessedRaw   sql.NullString
		expiresRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&totalMovies,
		&enrichedCount,
		&errorMessage,
		&createdRaw,
		&accessedRaw,
		&expiresRaw,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:            id,
		Status:        Status(statusStr),
		TotalMovies:   totalMovies,
		EnrichedCount: enrichedCount,
		ErrorMessage:  errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if accessed, err := parseTimeString(accessedRaw.String); err == nil {
		sess.LastAccessed = accessed
	}
	if expires, err := parseTimeString(expiresRaw.String); err == nil {
		sess.ExpiresAt = expires
	}
	return sess, nil
}

func scanMovie(scanner interface{ Scan(dest ...any) error }) (*Movie, error) {
	var (
		id            int64
		sessionID     string
		title         string
		year          sql.NullInt64
		rating        sql.NullFloat64
		watchedDate   sql.NullString
		letterboxdURI sql.NullString
		rewatch       sql.NullInt64
		tags          sql.NullString
		review        sql.NullString
		liked         sql.NullInt64
		tmdbID        sql.NullInt64
		genres        sql.NullString
		directors     sql.NullString
		castNames     sql.NullString
		runtime       sql.NullInt64
		budget        sql.NullInt64
		revenue       sql.NullInt64
		popularity    sql.NullFloat64
		voteAverage   sql.NullFloat64
		origLanguage  sql.NullString
		country       sql.NullString
		enriched      sql.NullInt64
		processed     sql.NullInt64
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&title,
		&year,
		&rating,
		&watchedDate,
		&letterboxdURI,
		&rewatch,
		&tags,
		&review,
		&liked,
		&tmdbID,
		&genres,
		&directors,
		&castNames,
		&runtime,
		&budget,
		&revenue,
		&popularity,
		&voteAverage,
		&origLanguage,
		&country,
		&enriched,
		&processed,
	); err != nil {
		return nil, err
	}

	movie := &Movie{
		ID:            id,
		SessionID:     sessionID,
		Title:         title,
		WatchedDate:   watchedDate.String,
		LetterboxdURI: letterboxdURI.String,
		Tags:          tags.String,
		Review:        review.String,
		Genres:        decodeStringList(genres.String),
		Directors:     decodeStringList(directors.String),
		Cast:          decodeStringList(castNames.String),
	}
	if year.Valid {
		v := int(year.Int64)
		movie.Year = &v
	}
	if rating.Valid {
		v := rating.Float64
		movie.Rating = &v
	}
	if rewatch.Valid {
		movie.Rewatch = rewatch.Int64 != 0
	}
	if liked.Valid {
		movie.Liked = liked.Int64 != 0
	}
	if tmdbID.Valid {
		v := tmdbID.Int64
		movie.TMDBID = &v
	}
	if runtime.Valid {
		v := int(runtime.Int64)
		movie.Runtime = &v
	}
	if budget.Valid {
		v := budget.Int64
		movie.Budget = &v
	}
	if revenue.Valid {
		v := revenue.Int64
		movie.Revenue = &v
	}
	if popularity.Valid {
		v := popularity.Float64
		movie.Popularity = &v
	}
	if voteAverage.Valid {
		v := voteAverage.Float64
		movie.VoteAverage = &v
	}
	if origLanguage.Valid && origLanguage.String != "" {
		v := origLanguage.String
		movie.OriginalLanguage = &v
	}
	if country.Valid && country.String != "" {
		v := country.String
		movie.Country = &v
	}
	if enriched.Valid {
		movie.Enriched = enriched.Int64 != 0
	}
	if processed.Valid {
		movie.Processed = processed.Int64 != 0
	}
	return movie, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat64(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// encodeStringList stores list-valued fields as JSON text; nil and empty
// lists round-trip to NULL.
func encodeStringList(values []string) any {
	if len(values) == 0 {
		return nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(data)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
