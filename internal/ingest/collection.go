package ingest

import (
	"strings"

	"cinelog/internal/session"
)

// Entry accumulates everything the export files say about one movie. A
// movie often appears in several files; later files enhance what earlier
// ones recorded.
type Entry struct {
	URI         string
	Title       string
	Year        *int
	Rating      *float64
	WatchedDate string
	Watches     int
	Rewatch     bool
	Tags        []string
	Review      string
	Liked       bool
}

// recordWatch counts a watch and keeps the most recent date; ISO dates
// compare lexicographically.
func (e *Entry) recordWatch(date string) {
	e.Watches++
	if date > e.WatchedDate {
		e.WatchedDate = date
	}
	if e.Watches > 1 {
		e.Rewatch = true
	}
}

func (e *Entry) addTags(tags []string) {
	for _, tag := range tags {
		seen := false
		for _, existing := range e.Tags {
			if strings.EqualFold(existing, tag) {
				seen = true
				break
			}
		}
		if !seen {
			e.Tags = append(e.Tags, tag)
		}
	}
}

// Collection merges parsed export files, keyed by Letterboxd URI and kept
// in first-seen order.
type Collection struct {
	byURI  map[string]*Entry
	order  []string
	Errors []RowError
}

// NewCollection returns an empty collection ready to ingest files.
func NewCollection() *Collection {
	return &Collection{byURI: make(map[string]*Entry)}
}

func (c *Collection) upsert(uri, title string, year *int) *Entry {
	if entry, ok := c.byURI[uri]; ok {
		if entry.Title == "" {
			entry.Title = title
		}
		if entry.Year == nil {
			entry.Year = year
		}
		return entry
	}
	entry := &Entry{URI: uri, Title: title, Year: year}
	c.byURI[uri] = entry
	c.order = append(c.order, uri)
	return entry
}

// Len reports the number of unique movies seen so far.
func (c *Collection) Len() int {
	return len(c.byURI)
}

// Entries returns the merged entries in first-seen order.
func (c *Collection) Entries() []*Entry {
	entries := make([]*Entry, 0, len(c.order))
	for _, uri := range c.order {
		entries = append(entries, c.byURI[uri])
	}
	return entries
}

// Movies converts the merged entries into store rows.
func (c *Collection) Movies() []*session.Movie {
	movies := make([]*session.Movie, 0, len(c.order))
	for _, entry := range c.Entries() {
		movies = append(movies, &session.Movie{
			Title:         entry.Title,
			Year:          entry.Year,
			Rating:        entry.Rating,
			WatchedDate:   entry.WatchedDate,
			LetterboxdURI: entry.URI,
			Rewatch:       entry.Rewatch,
			Tags:          strings.Join(entry.Tags, ";"),
			Review:        entry.Review,
			Liked:         entry.Liked,
		})
	}
	return movies
}
