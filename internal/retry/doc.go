// Package retry wraps single provider calls with bounded retries and
// exponential backoff. Only classified-transient failures are retried;
// terminal failures propagate immediately so a "not found" never burns
// rate-limit budget on hopeless attempts.
package retry
