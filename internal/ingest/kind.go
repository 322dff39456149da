package ingest

import (
	"path/filepath"
	"strings"
)

// Kind identifies which Letterboxd export file a CSV is.
type Kind string

const (
	KindWatched Kind = "watched"
	KindRatings Kind = "ratings"
	KindDiary   Kind = "diary"
	KindLikes   Kind = "likes"
)

// DetectKind guesses the export kind from a file name. Letterboxd names its
// exports watched.csv, ratings.csv, diary.csv and likes/films.csv.
func DetectKind(name string) (Kind, bool) {
	base := strings.ToLower(filepath.Base(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	switch {
	case strings.Contains(base, "watched"):
		return KindWatched, true
	case strings.Contains(base, "rating"):
		return KindRatings, true
	case strings.Contains(base, "diary"):
		return KindDiary, true
	case strings.Contains(base, "like"), strings.Contains(base, "films"):
		return KindLikes, true
	default:
		return "", false
	}
}
