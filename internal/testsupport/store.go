package testsupport

import (
	"context"
	"testing"
	"time"

	"cinelog/internal/config"
	"cinelog/internal/session"
)

// MustOpenStore opens a session.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a session for tests with a one-hour expiry.
func NewSession(t testing.TB, store *session.Store) *session.Session {
	t.Helper()

	sess, err := store.CreateSession(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return sess
}

// SeedMovies inserts bare movies with the given titles into a session.
func SeedMovies(t testing.TB, store *session.Store, sessionID string, titles ...string) {
	t.Helper()

	movies := make([]*session.Movie, 0, len(titles))
	for _, title := range titles {
		movies = append(movies, &session.Movie{Title: title})
	}
	if err := store.InsertMovies(context.Background(), sessionID, movies); err != nil {
		t.Fatalf("store.InsertMovies: %v", err)
	}
}
