//go:build integration

package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"paycustom/internal/customization/cache"
	"paycustom/internal/customization/metrics"
	"paycustom/internal/decision/ports"
	"paycustom/pkg/testutil/containers"
)

type slowSource struct {
	calls   atomic.Int32
	enabled atomic.Bool
	value   string
}

func (s *slowSource) ConfigurationFor(_ context.Context, id uuid.UUID) (*ports.ConfigRecord, error) {
	s.calls.Add(1)
	time.Sleep(50 * time.Millisecond)
	v := s.value
	return &ports.ConfigRecord{CustomizationID: id, Enabled: s.enabled.Load(), Value: &v}, nil
}

type ConfigCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	source  *slowSource
	metrics *metrics.Metrics
	cache   *cache.ReadThrough
	ctx     context.Context
}

func TestConfigCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ConfigCacheSuite))
}

func (s *ConfigCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.ctx = context.Background()
}

func (s *ConfigCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(s.ctx))
	s.source = &slowSource{value: `{"paymentMethodName":"COD","products":"[]"}`}
	s.source.enabled.Store(true)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = cache.NewReadThrough(cache.New(s.redis.Client, time.Minute, cache.WithMetrics(s.metrics)), s.source)
}

func (s *ConfigCacheSuite) TestReadThrough() {
	id := uuid.New()

	first, err := s.cache.ConfigurationFor(s.ctx, id)
	s.Require().NoError(err)
	second, err := s.cache.ConfigurationFor(s.ctx, id)
	s.Require().NoError(err)

	s.Equal(int32(1), s.source.calls.Load())
	s.Equal(*first.Value, *second.Value)
	s.Equal(id, second.CustomizationID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheResults.WithLabelValues("miss")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheResults.WithLabelValues("hit")))

	ttl, err := s.redis.Client.TTL(s.ctx, cache.Key(id)).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}

func (s *ConfigCacheSuite) TestInvalidateReloads() {
	id := uuid.New()
	_, err := s.cache.ConfigurationFor(s.ctx, id)
	s.Require().NoError(err)

	s.source.enabled.Store(false)
	s.Require().NoError(s.cache.Invalidate(s.ctx, id))

	record, err := s.cache.ConfigurationFor(s.ctx, id)
	s.Require().NoError(err)
	s.False(record.Enabled)
	s.Equal(int32(2), s.source.calls.Load())
}

// TestConcurrentMissesShareOneLoad verifies singleflight collapses a burst of
// misses for the same id.
func (s *ConfigCacheSuite) TestConcurrentMissesShareOneLoad() {
	id := uuid.New()
	const goroutines = 20

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.cache.ConfigurationFor(s.ctx, id)
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.LessOrEqual(s.source.calls.Load(), int32(2))
}

// blockingSource returns the record it holds when the load started, and only
// after release is signalled.
type blockingSource struct {
	started chan struct{}
	release chan struct{}
	enabled atomic.Bool
}

func (s *blockingSource) ConfigurationFor(_ context.Context, id uuid.UUID) (*ports.ConfigRecord, error) {
	enabled := s.enabled.Load()
	s.started <- struct{}{}
	<-s.release
	v := `{"paymentMethodName":"COD","products":"[]"}`
	return &ports.ConfigRecord{CustomizationID: id, Enabled: enabled, Value: &v}, nil
}

func (s *ConfigCacheSuite) TestInvalidateDuringLoadSkipsWriteBack() {
	id := uuid.New()
	source := &blockingSource{started: make(chan struct{}, 1), release: make(chan struct{}, 1)}
	source.enabled.Store(true)
	c := cache.NewReadThrough(cache.New(s.redis.Client, time.Minute), source)

	done := make(chan error, 1)
	go func() {
		_, err := c.ConfigurationFor(s.ctx, id)
		done <- err
	}()
	<-source.started

	// The record changes and is invalidated while the old value is loading.
	source.enabled.Store(false)
	s.Require().NoError(c.Invalidate(s.ctx, id))
	source.release <- struct{}{}
	s.Require().NoError(<-done)

	exists, err := s.redis.Client.Exists(s.ctx, cache.Key(id)).Result()
	s.Require().NoError(err)
	s.Zero(exists, "stale value must not be written back")

	source.release <- struct{}{}
	record, err := c.ConfigurationFor(s.ctx, id)
	s.Require().NoError(err)
	s.False(record.Enabled)

	exists, err = s.redis.Client.Exists(s.ctx, cache.Key(id)).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}

func (s *ConfigCacheSuite) TestInvalidateBumpsGeneration() {
	id := uuid.New()
	s.Require().NoError(s.cache.Invalidate(s.ctx, id))
	s.Require().NoError(s.cache.Invalidate(s.ctx, id))

	gen, err := s.redis.Client.Get(s.ctx, cache.GenerationKey(id)).Int()
	s.Require().NoError(err)
	s.Equal(2, gen)

	ttl, err := s.redis.Client.TTL(s.ctx, cache.GenerationKey(id)).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}
