package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSearchMovieBuildsQuery(t *testing.T) {
	var gotPath, gotQuery, gotYear, gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotYear = r.URL.Query().Get("primary_release_year")
		gotKey = r.URL.Query().Get("api_key")
		w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30","popularity":80.1}],"total_results":1,"total_pages":1}`))
	})

	resp, err := client.SearchMovie(context.Background(), "The Matrix", 1999)
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if gotPath != "/search/movie" || gotQuery != "The Matrix" || gotYear != "1999" || gotKey != "test-key" {
		t.Fatalf("unexpected request: path=%s query=%s year=%s key=%s", gotPath, gotQuery, gotYear, gotKey)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 603 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Results[0].Year() != 1999 {
		t.Fatalf("expected year 1999, got %d", resp.Results[0].Year())
	}
}

func TestGetMovieDetailsDecodesPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"id":603,"title":"The Matrix","runtime":136,"budget":63000000,
			"revenue":463517383,"popularity":80.1,"vote_average":8.2,
			"original_language":"en",
			"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}],
			"production_countries":[{"iso_3166_1":"US","name":"United States of America"}]
		}`))
	})

	details, err := client.GetMovieDetails(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetMovieDetails: %v", err)
	}
	if details.Runtime != 136 || len(details.Genres) != 2 || details.Genres[0].Name != "Action" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if len(details.ProductionCountries) != 1 || details.ProductionCountries[0].ISO31661 != "US" {
		t.Fatalf("unexpected countries: %+v", details.ProductionCountries)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		target error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"auth unauthorized", http.StatusUnauthorized, ErrAuthRejected},
		{"auth forbidden", http.StatusForbidden, ErrAuthRejected},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
			})
			_, err := client.GetMovieDetails(context.Background(), 1)
			if !errors.Is(err, tc.target) {
				t.Fatalf("status %d: expected %v, got %v", tc.code, tc.target, err)
			}
		})
	}
}

func TestIsTransientClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := client.GetMovieCredits(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if !IsTransient(err) {
		t.Fatalf("503 should classify transient: %v", err)
	}

	notFound := statusError("tmdb movie details", http.StatusNotFound)
	if IsTransient(notFound) {
		t.Fatal("not-found must not classify transient")
	}
	rateLimited := statusError("tmdb search", http.StatusTooManyRequests)
	if !IsTransient(rateLimited) {
		t.Fatal("rate-limited must classify transient")
	}
	auth := statusError("tmdb search", http.StatusUnauthorized)
	if IsTransient(auth) || !IsTerminal(auth) {
		t.Fatal("auth rejection must be terminal")
	}
}

func TestNewRequiresKeyAndURL(t *testing.T) {
	if _, err := New("", "https://example.com", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New("key", "", ""); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
