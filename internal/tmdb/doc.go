// Package tmdb provides access to The Movie Database API: title search,
// movie details, and credits. Responses are plain decoded payloads; caching,
// rate limiting, and retries live in the enrich package that composes this
// client.
package tmdb
