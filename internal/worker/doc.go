// Package worker drives sessions through enrichment. A single background
// loop polls for sessions in the enriching state and runs one cycle per
// session at a time; each cycle walks the pending movies in batches with a
// bounded number of concurrent provider lookups.
package worker
