// Package cache keeps stored configurations in Redis in front of the
// customization store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"paycustom/internal/customization/metrics"
	"paycustom/internal/decision/ports"
	"paycustom/pkg/platform/circuit"
	"paycustom/pkg/platform/sentinel"
)

const (
	keyPrefix        = "paycustom:config:"
	generationPrefix = "paycustom:config-gen:"

	// generationTTL outlives any in-flight load; an expired generation reads
	// as zero, which can only make a pending write-back mismatch.
	generationTTL = 24 * time.Hour

	loadTimeout = 5 * time.Second
)

// storeIfCurrent writes the entry only while the generation still equals the
// one read before the load. KEYS: entry, generation. ARGV: generation, entry, ttl ms.
const storeIfCurrent = `
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`

// invalidate drops the entry and bumps the generation so loads that started
// earlier do not write their result back. KEYS: entry, generation. ARGV: ttl ms.
const invalidate = `
redis.call('DEL', KEYS[1])
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return 1
`

type entry struct {
	Enabled bool    `json:"enabled"`
	Value   *string `json:"value,omitempty"`
}

// ConfigCache stores configuration records in Redis. It is shared by the
// read path (ReadThrough) and the write path (Invalidate).
type ConfigCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a ConfigCache.
type Option func(*ConfigCache)

// WithMetrics records hit, miss and error counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *ConfigCache) {
		c.metrics = m
	}
}

// WithBreaker skips Redis reads and writes while the breaker is open.
// Invalidation is always attempted.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *ConfigCache) {
		c.breaker = b
	}
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ConfigCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Redis-backed cache. A non-positive ttl stores entries without expiry.
func New(client redis.Cmdable, ttl time.Duration, opts ...Option) *ConfigCache {
	c := &ConfigCache{
		client: client,
		ttl:    ttl,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the Redis key for a customization id.
func Key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// GenerationKey returns the Redis key holding the invalidation counter for id.
func GenerationKey(id uuid.UUID) string {
	return generationPrefix + id.String()
}

// ReadThrough serves ports.ConfigSource from the cache and loads misses from
// next. Redis failures degrade to next; concurrent misses for one id share a
// single load.
type ReadThrough struct {
	*ConfigCache
	next  ports.ConfigSource
	group singleflight.Group
}

// NewReadThrough puts cache in front of next.
func NewReadThrough(cache *ConfigCache, next ports.ConfigSource) *ReadThrough {
	return &ReadThrough{ConfigCache: cache, next: next}
}

// ConfigurationFor implements ports.ConfigSource. A result loaded from next is
// written back only if no invalidation happened while it loaded. The shared
// load is detached from the caller's cancellation so one caller giving up
// does not fail the others waiting on it.
func (c *ReadThrough) ConfigurationFor(ctx context.Context, customizationID uuid.UUID) (*ports.ConfigRecord, error) {
	key := Key(customizationID)
	genKey := GenerationKey(customizationID)

	var generation string
	useCache := c.allow()
	if !useCache {
		c.metrics.IncrementCacheResult("bypass")
	} else {
		record, gen, err := c.lookup(ctx, key, genKey)
		switch {
		case err == nil:
			c.recordResult(ctx, nil)
			c.metrics.IncrementCacheResult("hit")
			record.CustomizationID = customizationID
			return record, nil
		case errors.Is(err, sentinel.ErrCacheMiss):
			c.recordResult(ctx, nil)
			c.metrics.IncrementCacheResult("miss")
			generation = gen
		default:
			c.recordResult(ctx, err)
			c.metrics.IncrementCacheResult("error")
			c.logger.WarnContext(ctx, "configuration cache unavailable, reading store",
				"customization_id", customizationID,
				"error", err,
			)
			useCache = false
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		loaded, err := c.next.ConfigurationFor(loadCtx, customizationID)
		if err != nil {
			return nil, err
		}
		if useCache {
			c.store(loadCtx, key, genKey, generation, loaded)
		}
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := *res.Val.(*ports.ConfigRecord)
		return &shared, nil
	}
}

// Invalidate drops the cached entry for id and fences off loads already in
// flight.
func (c *ConfigCache) Invalidate(ctx context.Context, customizationID uuid.UUID) error {
	keys := []string{Key(customizationID), GenerationKey(customizationID)}
	if err := c.client.Eval(ctx, invalidate, keys, generationTTL.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("invalidate configuration cache: %w", err)
	}
	return nil
}

func (c *ConfigCache) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *ConfigCache) recordResult(ctx context.Context, err error) {
	if c.breaker == nil {
		return
	}
	if err == nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "configuration cache recovered", "breaker", c.breaker.Name())
		}
		return
	}
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "configuration cache disabled after repeated failures",
			"breaker", c.breaker.Name(),
			"error", err,
		)
	}
}

// lookup reads the entry and its generation in one round trip. On a miss the
// generation is returned for the later write-back.
func (c *ConfigCache) lookup(ctx context.Context, key, genKey string) (*ports.ConfigRecord, string, error) {
	vals, err := c.client.MGet(ctx, key, genKey).Result()
	if err != nil {
		return nil, "", fmt.Errorf("get cached configuration: %w", err)
	}
	generation := "0"
	if gen, ok := vals[1].(string); ok {
		generation = gen
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, generation, sentinel.ErrCacheMiss
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// Unreadable entries are treated as absent and overwritten on load.
		return nil, generation, sentinel.ErrCacheMiss
	}
	return &ports.ConfigRecord{Enabled: e.Enabled, Value: e.Value}, generation, nil
}

func (c *ConfigCache) store(ctx context.Context, key, genKey, generation string, record *ports.ConfigRecord) {
	raw, err := json.Marshal(entry{Enabled: record.Enabled, Value: record.Value})
	if err != nil {
		return
	}
	stored, err := c.client.Eval(ctx, storeIfCurrent, []string{key, genKey}, generation, raw, max(c.ttl, 0).Milliseconds()).Int()
	if err != nil {
		c.recordResult(ctx, err)
		c.logger.WarnContext(ctx, "failed to cache configuration",
			"key", key,
			"error", err,
		)
		return
	}
	if stored == 0 {
		c.logger.DebugContext(ctx, "configuration changed while loading, not caching",
			"key", key,
		)
	}
}
