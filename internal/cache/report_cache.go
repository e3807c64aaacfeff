// Package cache provides an optional Redis-backed cache for computed
// analysis reports, keyed by subject and a fingerprint of the entry stream.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"mindmate-insights/internal/config"
	"mindmate-insights/internal/logging"
	"mindmate-insights/pkg/types"
)

// ReportCache caches serialized analysis results. A nil *ReportCache is a
// valid cache that always misses, so callers never need to branch on
// whether caching is enabled.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewReportCache creates a Redis-backed cache, or nil when disabled
func NewReportCache(cfg *config.RedisConfig, logger logging.Logger) *ReportCache {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &ReportCache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
		logger: logger.WithComponent("report_cache"),
	}
}

// StreamKey fingerprints a subject's entry stream. Any change to the
// entries changes the key, so stale reports are simply never read again
// and can expire on their own.
func StreamKey(kind, subjectID string, entries []types.EmotionEntry) string {
	h := fnv.New64a()
	for i := range entries {
		_, _ = fmt.Fprintf(h, "%s|%d;", entries[i].Emotion, entries[i].Timestamp.UnixMilli())
	}
	return fmt.Sprintf("insights:%s:%s:%x", kind, subjectID, h.Sum64())
}

// Get loads a cached report into dest, reporting whether it was found.
// Cache failures degrade to a miss.
func (c *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("cache entry corrupt, ignoring", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores a report under the key with the configured TTL. Failures are
// logged and swallowed; the cache is an optimization, not a dependency.
func (c *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache serialization failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err.Error())
	}
}

// Close releases the Redis client
func (c *ReportCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
