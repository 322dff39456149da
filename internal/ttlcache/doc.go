// Package ttlcache memoizes provider responses for a bounded time so repeat
// lookups within a session batch do not consume rate-limit budget.
package ttlcache
