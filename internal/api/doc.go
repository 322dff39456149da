// Package api exposes the HTTP surface: CSV upload, session inspection and
// enrichment triggers. Responses are JSON throughout.
package api
