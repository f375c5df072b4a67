// Package cache implements the fingerprinted, TTL-bounded key/value store
// of spec.md §4.7 as a two-tier cache: an in-process ristretto tier for hot
// reads, backed through to a Redis tier that is the durable, cross-process
// store referenced by the cache/queue backing configuration in spec.md §6.
package cache

import (
	"context"
	"strconv"
	"time"
)

// Stats summarizes cache occupancy, as returned by the spec's stats() call.
type Stats struct {
	Keys        int64
	MemoryHuman string
}

// Cache is the contract consumed by the rest of the pipeline.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// TTLs for the key namespaces used by the core, per spec.md §4.7.
const (
	TTLMarkets       = 120 * time.Second
	TTLOpportunities = 120 * time.Second
	TTLScanResults   = 3600 * time.Second
)

// MarketsKey is the cache key for a platform's last fetched market list.
func MarketsKey(platform string) string {
	return "markets:" + platform
}

// OpportunitiesLatestKey is the cache key for the most recent scan's results.
const OpportunitiesLatestKey = "opportunities:latest"

// ScanResultsKey is the cache key for a timestamped scan result snapshot.
func ScanResultsKey(epochMs int64) string {
	return "scan:results:" + strconv.FormatInt(epochMs, 10)
}

// AlertSentKey is the cache key for a pair's cooldown marker.
func AlertSentKey(idA, idB string) string {
	return "alert:sent:" + idA + ":" + idB
}
