// Package resultcache caches retrieval responses keyed by query and filter.
// A per-key in-flight lock gives a write-once-per-TTL-window discipline:
// concurrent identical queries compute the expensive result once.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/kv"
)

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ComputeFunc produces the results on a cache miss.
type ComputeFunc func(ctx context.Context) ([]domain.RetrievalResult, error)

// Cache is a TTL-bounded retrieval result cache.
type Cache struct {
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger

	mu       sync.Mutex
	inflight map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a result cache. ttl must be positive.
func New(
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		keyPrefix:  keyPrefix + "result_cache:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
		inflight:   make(map[string]*keyLock),
	}
}

// GetOrCompute returns cached results for (query, filter, topK, minSimilarity)
// or computes and stores them. Compute errors are returned as-is and nothing
// is cached for that window.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	query string,
	filter domain.Filter,
	topK int,
	minSimilarity float64,
	compute func(ctx context.Context) ([]domain.RetrievalResult, error),
) ([]domain.RetrievalResult, error) {
	key := c.cacheKey(query, filter, topK, minSimilarity)

	lock := c.acquire(key)
	defer c.release(key, lock)

	if results, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return results, nil
	}
	c.incCache("miss")

	results, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, results)
	return results, nil
}

// acquire takes the per-key lock, creating it when absent.
func (c *Cache) acquire(key string) *keyLock {
	c.mu.Lock()
	lock, ok := c.inflight[key]
	if !ok {
		lock = &keyLock{}
		c.inflight[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (c *Cache) release(key string, lock *keyLock) {
	lock.mu.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
}

func (c *Cache) cacheKey(query string, filter domain.Filter, topK int, minSimilarity float64) string {
	payload := fmt.Sprintf("%s|%s|%d|%g", query, filter.CanonicalString(), topK, minSimilarity)
	h := sha256.Sum256([]byte(payload))
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *Cache) getFromCache(ctx context.Context, key string) ([]domain.RetrievalResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached results", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var results []domain.RetrievalResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("Failed to parse cached results", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return results, true
}

func (c *Cache) putToCache(ctx context.Context, key string, results []domain.RetrievalResult) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn("Failed to marshal results for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache results", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
