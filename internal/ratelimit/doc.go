// Package ratelimit bounds outbound provider calls with two independent
// limits: a sliding-window quota and a cap on concurrent in-flight calls.
// A provider may reject bursts even when the rolling quota still has room,
// so both bounds are enforced together.
package ratelimit
