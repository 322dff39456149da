// Package daemon wires the service together: session store, TMDB client,
// enrichment worker, HTTP API and session cleanup. A file lock enforces a
// single instance per data directory.
package daemon
