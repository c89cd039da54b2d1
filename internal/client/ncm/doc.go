// Package ncm provides a Go client for the music catalog REST API.
// It fetches song and program details, resolves playable stream URLs
// for a requested quality level, and retrieves timestamped lyrics.
// Requests go through go-retryablehttp for transient failures and a
// gobreaker circuit breaker that stops hammering an unhealthy catalog.
// Song and program details are cached in LRU caches.
package ncm
