// Package enrich composes the TTL cache, rate limiter, and retry policy
// around the TMDB client to turn a (title, year) pair into a flat
// enrichment record via the search -> details -> credits pipeline.
package enrich
