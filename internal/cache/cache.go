// Package cache stores fetched pages so repeated scrapes do not hit the upstream site.
//
// Redis shares pages between runs and machines, and between data dirs, with a TTL
// that bounds how stale a page may be.
package cache

import (
	"context"
	"time"
)

// KeyPrefix namespaces page keys
const KeyPrefix = "nba-mvp:page:"

// DefaultTTL is used when no TTL is configured. Historical pages rarely change.
const DefaultTTL = 30 * 24 * time.Hour

// PageCache stores HTML by URL
type PageCache interface {
	// Get returns the cached page. ok is false on a miss.
	Get(ctx context.Context, url string) (html string, ok bool, err error)
	Set(ctx context.Context, url, html string) error
}

// Key returns the cache key for a page URL
func Key(url string) string {
	return KeyPrefix + url
}
