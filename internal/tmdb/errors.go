package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Sentinel errors classifying provider failures.
var (
	// ErrNotFound is terminal: the movie does not exist on the provider.
	ErrNotFound = errors.New("tmdb: not found")
	// ErrAuthRejected is terminal and systemic: the API key was refused.
	ErrAuthRejected = errors.New("tmdb: authentication rejected")
	// ErrRateLimited is transient: the provider asked us to slow down.
	ErrRateLimited = errors.New("tmdb: rate limited")
)

// statusError converts a non-200 response code into the matching sentinel.
func statusError(operation string, code int) error {
	switch {
	case code == 404:
		return fmt.Errorf("%s: %w", operation, ErrNotFound)
	case code == 401 || code == 403:
		return fmt.Errorf("%s: %w", operation, ErrAuthRejected)
	case code == 429:
		return fmt.Errorf("%s: %w", operation, ErrRateLimited)
	default:
		return fmt.Errorf("%s returned %d", operation, code)
	}
}

// IsTerminal reports whether err will not change on retry.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAuthRejected)
}

// IsTransient reports whether err represents a condition that warrants an
// automatic retry: explicit rate limiting, timeouts, connection errors, or
// server-side overload.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsTerminal(err) {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	// Server errors are typically transient (outages, deploys, overload).
	for _, code := range []string{"500", "502", "503", "504"} {
		if strings.Contains(message, "returned "+code) {
			return true
		}
	}
	transientTokens := []string{
		"timeout",
		"deadline exceeded",
		"client.timeout exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	}
	for _, token := range transientTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
