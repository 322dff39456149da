package api

import (
	"strings"
	"time"

	"cinelog/internal/session"
)

// SessionResponse is the JSON shape of a session.
type SessionResponse struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	TotalMovies   int     `json:"total_movies"`
	EnrichedCount int     `json:"enriched_count"`
	Progress      float64 `json:"progress"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ExpiresAt     string  `json:"expires_at"`
}

// MovieResponse is the JSON shape of one movie row.
type MovieResponse struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Year          *int     `json:"year,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	WatchedDate   string   `json:"watched_date,omitempty"`
	LetterboxdURI string   `json:"letterboxd_uri,omitempty"`
	Rewatch       bool     `json:"rewatch"`
	Liked         bool     `json:"liked"`
	Tags          []string `json:"tags,omitempty"`
	Review        string   `json:"review,omitempty"`

	Enriched         bool     `json:"enriched"`
	TMDBID           *int64   `json:"tmdb_id,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Directors        []string `json:"directors,omitempty"`
	Cast             []string `json:"cast,omitempty"`
	Runtime          *int     `json:"runtime,omitempty"`
	Budget           *int64   `json:"budget,omitempty"`
	Revenue          *int64   `json:"revenue,omitempty"`
	Popularity       *float64 `json:"popularity,omitempty"`
	VoteAverage      *float64 `json:"vote_average,omitempty"`
	OriginalLanguage *string  `json:"original_language,omitempty"`
	Country          *string  `json:"country,omitempty"`
}

// UploadResponse reports the outcome of a CSV upload.
type UploadResponse struct {
	Session   SessionResponse `json:"session"`
	Files     []string        `json:"files"`
	Movies    int             `json:"movies"`
	RowErrors []string        `json:"row_errors,omitempty"`
}

// MoviesResponse is one page of session movies.
type MoviesResponse struct {
	SessionID string          `json:"session_id"`
	Total     int             `json:"total"`
	Skip      int             `json:"skip"`
	Limit     int             `json:"limit"`
	Movies    []MovieResponse `json:"movies"`
}

// HealthResponse summarizes service state for monitoring.
type HealthResponse struct {
	Status   string               `json:"status"`
	Sessions session.CountSummary `json:"sessions"`
}

func toSessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		ID:            sess.ID,
		Status:        string(sess.Status),
		TotalMovies:   sess.TotalMovies,
		EnrichedCount: sess.EnrichedCount,
		Progress:      sess.ProgressPercent(),
		ErrorMessage:  sess.ErrorMessage,
		CreatedAt:     sess.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func toMovieResponse(movie *session.Movie) MovieResponse {
	resp := MovieResponse{
		ID:               movie.ID,
		Title:            movie.Title,
		Year:             movie.Year,
		Rating:           movie.Rating,
		WatchedDate:      movie.WatchedDate,
		LetterboxdURI:    movie.LetterboxdURI,
		Rewatch:          movie.Rewatch,
		Liked:            movie.Liked,
		Review:           movie.Review,
		Enriched:         movie.Enriched,
		TMDBID:           movie.TMDBID,
		Genres:           movie.Genres,
		Directors:        movie.Directors,
		Cast:             movie.Cast,
		Runtime:          movie.Runtime,
		Budget:           movie.Budget,
		Revenue:          movie.Revenue,
		Popularity:       movie.Popularity,
		VoteAverage:      movie.VoteAverage,
		OriginalLanguage: movie.OriginalLanguage,
		Country:          movie.Country,
	}
	if movie.Tags != "" {
		resp.Tags = strings.Split(movie.Tags, ";")
	}
	return resp
}
