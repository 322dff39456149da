package session

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an upload session.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusEnriching  Status = "enriching"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusUploading,
	StatusProcessing,
	StatusEnriching,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is an upload session persisted in SQLite.
type Session struct {
	ID            string
	Status        Status
	TotalMovies   int
	EnrichedCount int
	ErrorMessage  string
	CreatedAt     time.Time
	LastAccessed  time.Time
	ExpiresAt     time.Time
}

// ProgressPercent reports enrichment progress in [0, 100].
func (s *Session) ProgressPercent() float64 {
	if s.TotalMovies <= 0 {
		return 0
	}
	return float64(s.EnrichedCount) / float64(s.TotalMovies) * 100
}

// Expired reports whether the session passed its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Movie is one row of a Letterboxd export plus its enrichment payload.
// Pointer fields distinguish "absent" from a genuine zero value.
type Movie struct {
	ID        int64
	SessionID string

	Title         string
	Year          *int
	Rating        *float64
	WatchedDate   string
	LetterboxdURI string
	Rewatch       bool
	Tags          string
	Review        string
	Liked         bool

	TMDBID           *int64
	Genres           []string
	Directors        []string
	Cast             []string
	Runtime          *int
	Budget           *int64
	Revenue          *int64
	Popularity       *float64
	VoteAverage      *float64
	OriginalLanguage *string
	Country          *string
	Enriched         bool
	Processed        bool
}

// ReleaseYear returns the year or zero when unknown.
func (m *Movie) ReleaseYear() int {
	if m.Year == nil {
		return 0
	}
	return *m.Year
}

// CountSummary aggregates session counts per lifecycle state.
type CountSummary struct {
	Total     int
	Uploading int
	Enriching int
	Completed int
	Failed    int
}
