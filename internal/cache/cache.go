package cache

import (
	"errors"

	"github.com/2beens/athletedash/internal/telemetry/metrics"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

type Cache interface {
	Get(key []byte) ([]byte, bool)
	Set(key, value []byte)
	Clear()
}

var _ Cache = (*FreeCache)(nil)

// FreeCache is a size bounded byte cache where every entry lives ttlSeconds.
type FreeCache struct {
	mainCache      *freecache.Cache
	ttlSeconds     int
	metricsManager *metrics.Manager
}

// NewFreeCache allocates sizeMB megabytes up front. A non-positive ttl keeps
// entries until they are evicted.
func NewFreeCache(sizeMB, ttlSeconds int, metricsManager *metrics.Manager) *FreeCache {
	if ttlSeconds < 0 {
		ttlSeconds = 0
	}
	return &FreeCache{
		mainCache:      freecache.NewCache(sizeMB * megabyte),
		ttlSeconds:     ttlSeconds,
		metricsManager: metricsManager,
	}
}

func (c *FreeCache) Get(key []byte) ([]byte, bool) {
	value, err := c.mainCache.Get(key)
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Errorf("cache get: %s", err)
		}
		if c.metricsManager != nil {
			c.metricsManager.CounterScoreCacheMisses.Inc()
		}
		return nil, false
	}

	if c.metricsManager != nil {
		c.metricsManager.CounterScoreCacheHits.Inc()
	}
	return value, true
}

// Set stores the value. Entries too large for the cache are skipped.
func (c *FreeCache) Set(key, value []byte) {
	if err := c.mainCache.Set(key, value, c.ttlSeconds); err != nil {
		log.Warnf("cache set, %d bytes: %s", len(value), err)
	}
}

func (c *FreeCache) Clear() {
	c.mainCache.Clear()
}

func (c *FreeCache) EntryCount() int64 {
	return c.mainCache.EntryCount()
}
