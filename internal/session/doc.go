// Package session persists upload sessions and their movies in SQLite.
// A session tracks one Letterboxd export through the enrichment lifecycle;
// its movies carry both the parsed CSV fields and the enrichment payload.
package session
