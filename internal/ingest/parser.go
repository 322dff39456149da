package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Required columns per export kind. Every export also carries a Date column
// whose meaning differs per file: watch date, rating date, diary post date
// or like date.
var requiredColumns = map[Kind][]string{
	KindWatched: {"Name", "Year", "Letterboxd URI"},
	KindRatings: {"Name", "Year", "Rating", "Letterboxd URI"},
	KindDiary:   {"Name", "Year", "Letterboxd URI", "Watched Date"},
	KindLikes:   {"Name", "Year", "Letterboxd URI"},
}

// RowError records a skipped CSV row. Bad rows never abort an ingest; they
// are reported back to the uploader.
type RowError struct {
	File   string
	Line   int
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("%s row %d: %s", e.File, e.Line, e.Reason)
}

// ParseFile reads one export file into the collection. Structural problems
// (unreadable CSV, missing required columns) return an error; individual bad
// rows are collected as RowErrors instead.
func (c *Collection) ParseFile(kind Kind, name string, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read %s header: %w", name, err)
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredColumns[kind] {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s missing required columns: %s", name, strings.Join(missing, ", "))
	}

	field := func(record []string, col string) string {
		idx, ok := columns[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	now := time.Now()
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.Errors = append(c.Errors, RowError{File: name, Line: line, Reason: err.Error()})
			continue
		}

		uri := field(record, "Letterboxd URI")
		if uri == "" {
			c.Errors = append(c.Errors, RowError{File: name, Line: line, Reason: "missing Letterboxd URI"})
			continue
		}
		title := field(record, "Name")
		entry := c.upsert(uri, title, parseYear(field(record, "Year"), now))

		switch kind {
		case KindWatched:
			date := parseDate(field(record, "Date"))
			if date == "" {
				c.Errors = append(c.Errors, RowError{File: name, Line: line, Reason: "invalid or missing date for " + title})
				continue
			}
			entry.recordWatch(date)

		case KindRatings:
			if rating := parseRating(field(record, "Rating")); rating != nil {
				entry.Rating = rating
			}

		case KindDiary:
			date := parseDate(field(record, "Watched Date"))
			if date == "" {
				c.Errors = append(c.Errors, RowError{File: name, Line: line, Reason: "invalid or missing watched date for " + title})
				continue
			}
			entry.recordWatch(date)
			if rating := parseRating(field(record, "Rating")); rating != nil {
				entry.Rating = rating
			}
			if parseBool(field(record, "Rewatch")) {
				entry.Rewatch = true
			}
			entry.addTags(parseTags(field(record, "Tags")))
			if review := field(record, "Review"); review != "" {
				entry.Review = review
			}

		case KindLikes:
			entry.Liked = true
		}
	}

	return nil
}
