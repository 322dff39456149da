package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"cinelog/internal/enrich"
	"cinelog/internal/session"
	"cinelog/internal/testsupport"
)

func TestCreateAndGetSession(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	sess, err := store.CreateSession(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected generated session id")
	}
	if sess.Status != session.StatusUploading {
		t.Fatalf("expected uploading, got %s", sess.Status)
	}
	if got := sess.ProgressPercent(); got != 0 {
		t.Fatalf("expected zero progress, got %f", got)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Fatalf("expiry %v not after creation %v", sess.ExpiresAt, sess.CreatedAt)
	}

	missing, err := store.GetSession(context.Background(), "no-such-session")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got %v %v", missing, err)
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)

	if err := store.FailSession(context.Background(), sess.ID, "provider unavailable"); err != nil {
		t.Fatalf("FailSession: %v", err)
	}
	got, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != session.StatusFailed || got.ErrorMessage != "provider unavailable" {
		t.Fatalf("unexpected failed state: %+v", got)
	}

	// A fresh transition clears the stale error.
	if err := store.SetStatus(context.Background(), sess.ID, session.StatusEnriching); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err = store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Status != session.StatusEnriching || got.ErrorMessage != "" {
		t.Fatalf("expected clean enriching state, got %+v", got)
	}
}

func TestConcurrentIncrementsNeverLoseUpdates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)

	const workers = 25
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.IncrementEnriched(context.Background(), sess.ID, 1); err != nil {
				t.Errorf("IncrementEnriched: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.EnrichedCount != workers {
		t.Fatalf("expected %d increments, got %d", workers, got.EnrichedCount)
	}
}

func TestInsertMoviesAndPendingSelection(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)

	year := 1999
	rating := 4.5
	movies := []*session.Movie{
		{Title: "The Matrix", Year: &year, Rating: &rating, LetterboxdURI: "https://boxd.it/aa", Rewatch: true},
		{Title: "Heat"},
		{Title: "Alien"},
	}
	if err := store.InsertMovies(context.Background(), sess.ID, movies); err != nil {
		t.Fatalf("InsertMovies: %v", err)
	}

	got, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.TotalMovies != 3 {
		t.Fatalf("expected movie total 3, got %d", got.TotalMovies)
	}

	pending, err := store.PendingMovies(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("PendingMovies: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending movies, got %d", len(pending))
	}
	first := pending[0]
	if first.Title != "The Matrix" || first.ReleaseYear() != 1999 || !first.Rewatch {
		t.Fatalf("CSV fields did not round-trip: %+v", first)
	}
	if first.Rating == nil || *first.Rating != 4.5 {
		t.Fatalf("rating did not round-trip: %v", first.Rating)
	}

	runtime := 136
	budget := int64(63000000)
	popularity := 80.5
	lang := "English"
	result := &enrich.Result{
		TMDBID:           603,
		Genres:           []string{"Action", "Science Fiction"},
		Directors:        []string{"Lana Wachowski", "Lilly Wachowski"},
		Cast:             []string{"Keanu Reeves"},
		Runtime:          &runtime,
		Budget:           &budget,
		Popularity:       &popularity,
		OriginalLanguage: &lang,
	}
	if err := store.SaveEnrichment(context.Background(), sess.ID, first.ID, result); err != nil {
		t.Fatalf("SaveEnrichment: %v", err)
	}
	if err := store.MarkProcessed(context.Background(), sess.ID, pending[1].ID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	pending, err = store.PendingMovies(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("PendingMovies: %v", err)
	}
	if len(pending) != 1 || pending[0].Title != "Alien" {
		t.Fatalf("expected only Alien pending, got %+v", pending)
	}

	enrichedMovie, err := store.GetMovie(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if !enrichedMovie.Enriched || !enrichedMovie.Processed {
		t.Fatalf("expected enriched+processed flags, got %+v", enrichedMovie)
	}
	if enrichedMovie.TMDBID == nil || *enrichedMovie.TMDBID != 603 {
		t.Fatalf("tmdb id did not round-trip: %v", enrichedMovie.TMDBID)
	}
	if len(enrichedMovie.Genres) != 2 || enrichedMovie.Genres[1] != "Science Fiction" {
		t.Fatalf("genres did not round-trip: %v", enrichedMovie.Genres)
	}
	if enrichedMovie.Runtime == nil || *enrichedMovie.Runtime != 136 {
		t.Fatalf("runtime did not round-trip: %v", enrichedMovie.Runtime)
	}
	if enrichedMovie.Revenue != nil {
		t.Fatalf("absent revenue must stay nil, got %v", enrichedMovie.Revenue)
	}

	failedMovie, err := store.GetMovie(context.Background(), pending0ID(t, store, sess.ID, "Heat"))
	if err != nil {
		t.Fatalf("GetMovie: %v", err)
	}
	if failedMovie.Enriched || !failedMovie.Processed {
		t.Fatalf("processed-without-result flags wrong: %+v", failedMovie)
	}
}

func pending0ID(t *testing.T, store *session.Store, sessionID, title string) int64 {
	t.Helper()
	movies, err := store.SessionMovies(context.Background(), sessionID, 0, 100)
	if err != nil {
		t.Fatalf("SessionMovies: %v", err)
	}
	for _, movie := range movies {
		if movie.Title == title {
			return movie.ID
		}
	}
	t.Fatalf("movie %q not found", title)
	return 0
}

func TestMovieWritesMoveCounterOnce(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)
	testsupport.SeedMovies(t, store, sess.ID, "The Matrix", "Heat")

	movies, err := store.PendingMovies(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("PendingMovies: %v", err)
	}
	result := &enrich.Result{TMDBID: 603}
	if err := store.SaveEnrichment(context.Background(), sess.ID, movies[0].ID, result); err != nil {
		t.Fatalf("SaveEnrichment: %v", err)
	}
	if err := store.MarkProcessed(context.Background(), sess.ID, movies[1].ID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	got, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	// The movie write and the counter move in one transaction; a processed
	// movie can never be left uncounted.
	if got.EnrichedCount != 2 {
		t.Fatalf("expected counter 2 after both writes, got %d", got.EnrichedCount)
	}

	// Repeating either write on an already processed movie is a no-op.
	if err := store.MarkProcessed(context.Background(), sess.ID, movies[1].ID); err != nil {
		t.Fatalf("MarkProcessed again: %v", err)
	}
	if err := store.SaveEnrichment(context.Background(), sess.ID, movies[0].ID, result); err != nil {
		t.Fatalf("SaveEnrichment again: %v", err)
	}
	got, err = store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.EnrichedCount != 2 {
		t.Fatalf("double-marking moved the counter: %d", got.EnrichedCount)
	}
}

func TestSessionMoviesPagination(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)
	testsupport.SeedMovies(t, store, sess.ID, "A", "B", "C", "D", "E")

	page, err := store.SessionMovies(context.Background(), sess.ID, 2, 2)
	if err != nil {
		t.Fatalf("SessionMovies: %v", err)
	}
	if len(page) != 2 || page[0].Title != "C" || page[1].Title != "D" {
		t.Fatalf("unexpected page: %+v", page)
	}

	count, err := store.CountMovies(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("CountMovies: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 movies, got %d", count)
	}
}

func TestDeleteExpiredCascades(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	expired, err := store.CreateSession(context.Background(), -time.Hour)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	testsupport.SeedMovies(t, store, expired.ID, "Old One")
	live := testsupport.NewSession(t, store)

	removed, err := store.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed session, got %d", removed)
	}

	if got, err := store.GetSession(context.Background(), expired.ID); err != nil || got != nil {
		t.Fatalf("expired session should be gone, got %v %v", got, err)
	}
	if got, err := store.GetSession(context.Background(), live.ID); err != nil || got == nil {
		t.Fatalf("live session should survive, got %v %v", got, err)
	}
	if count, err := store.CountMovies(context.Background(), expired.ID); err != nil || count != 0 {
		t.Fatalf("movies should cascade on delete, got %d %v", count, err)
	}
}

func TestTouchExtendsExpiry(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sess := testsupport.NewSession(t, store)

	if err := store.Touch(context.Background(), sess.ID, 30*24*time.Hour); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	got, err := store.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.ExpiresAt.After(sess.ExpiresAt) {
		t.Fatalf("expiry not extended: %v -> %v", sess.ExpiresAt, got.ExpiresAt)
	}
}

func TestCountsByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	a := testsupport.NewSession(t, store)
	b := testsupport.NewSession(t, store)
	c := testsupport.NewSession(t, store)
	if err := store.SetStatus(context.Background(), a.ID, session.StatusEnriching); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := store.SetStatus(context.Background(), b.ID, session.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := store.FailSession(context.Background(), c.ID, "boom"); err != nil {
		t.Fatalf("FailSession: %v", err)
	}

	summary, err := store.CountsByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountsByStatus: %v", err)
	}
	if summary.Total != 3 || summary.Enriching != 1 || summary.Completed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := session.ParseStatus(" Enriching "); !ok || status != session.StatusEnriching {
		t.Fatalf("ParseStatus(Enriching) = %v %v", status, ok)
	}
	if _, ok := session.ParseStatus("nonsense"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if !session.StatusCompleted.IsTerminal() || session.StatusEnriching.IsTerminal() {
		t.Fatal("terminal classification wrong")
	}
}
