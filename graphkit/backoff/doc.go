// Package backoff provides the fixed-interval retry policy used when a graph
// database is not reachable yet at application startup.
//
// Use Policy.Attempts to size the retry loop and SleepWithContext to wait
// between attempts while respecting cancellation and deadlines.
package backoff
