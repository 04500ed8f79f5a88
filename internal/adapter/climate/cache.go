package climate

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/farm-yield-sim/internal/domain"
)

// CachedPredictor wraps a Predictor with an in-memory LRU cache. Repeated
// simulations of the same farm ask for the same cell-days, so a warm cache
// skips the model entirely.
type CachedPredictor struct {
	inner domain.Predictor
	cache *lruCache
}

// NewCachedPredictor creates a cache decorator around a predictor.
func NewCachedPredictor(inner domain.Predictor, maxEntries int) *CachedPredictor {
	return &CachedPredictor{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, dim domain.Dimension, lat, lon float64, day domain.DayOfYear) (float64, error) {
	key := predictionKey{dim: dim, lat: lat, lon: lon, day: day}
	if v, ok := c.cache.get(key); ok {
		return v, nil
	}
	v, err := c.inner.Predict(ctx, dim, lat, lon, day)
	if err != nil {
		// Only successes are cached so unavailable values can recover.
		return v, err
	}
	c.cache.put(key, v)
	return v, nil
}

// CheckReadiness delegates to the inner predictor when it reports readiness.
func (c *CachedPredictor) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(interface{ CheckReadiness(context.Context) error }); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

type predictionKey struct {
	dim      domain.Dimension
	lat, lon float64
	day      domain.DayOfYear
}

// lruCache is a bounded, mutex-guarded map of predicted values. order holds
// keys from most to least recently used.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	values     map[predictionKey]*list.Element
	order      *list.List
}

type cachedValue struct {
	key   predictionKey
	value float64
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		values:     make(map[predictionKey]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache) get(key predictionKey) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.values[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedValue).value, true
}

func (c *lruCache) put(key predictionKey, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.values[key]; ok {
		el.Value.(*cachedValue).value = value
		c.order.MoveToFront(el)
		return
	}
	c.values[key] = c.order.PushFront(&cachedValue{key: key, value: value})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.values, oldest.Value.(*cachedValue).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
