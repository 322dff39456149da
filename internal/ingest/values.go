package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-01-2006",
	"2006/01/02",
}

// parseDate accepts the date formats seen in real exports and renders the
// canonical ISO form. Empty or unparseable input yields "".
func parseDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// parseYear validates release years against a sane range; unreleased films
// may carry a near-future year.
func parseYear(value string, now time.Time) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	year, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	if year < 1800 || year > now.Year()+5 {
		return nil
	}
	return &year
}

// parseRating normalizes ratings to Letterboxd's half-star 0.5-5.0 scale.
// Star notation counts filled stars, with a trailing half star.
func parseRating(value string) *float64 {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "none", "unrated":
		return nil
	}

	if strings.Contains(value, "★") {
		rating := float64(strings.Count(value, "★"))
		if strings.Contains(value, "½") {
			rating += 0.5
		}
		return &rating
	}

	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	if rating < 0.5 || rating > 5.0 {
		return nil
	}
	rating = math.Round(rating*2) / 2
	return &rating
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "1", "y", "x", "✓":
		return true
	default:
		return false
	}
}

// parseTags splits a semicolon-separated tag list, dropping empties.
func parseTags(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ";") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
