// Package ingest parses Letterboxd CSV exports (watched, ratings, diary,
// likes) into session movies. Rows are keyed by Letterboxd URI, the only
// stable identifier across export files; title+year can collide.
package ingest
