package addressing

import (
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// snapCacheKey is the cross-request cache key: (graph, mapper, spatial,
// trait, strategy, max_snap, coord_bits). A
// SnapCache is always owned by exactly one Resolver (graph/mapper/spatial
// are therefore implicit in "which cache instance you asked"), so the key
// itself only needs to vary by trait, strategy, max_snap, and the
// canonicalized coordinate bits.
type snapCacheKey struct {
	traitID      string
	strategyID   string
	maxSnap      float64
	xBits, yBits uint64
}

// SnapCache is the segmented LRU: N
// independently locked segments, each an hashicorp/golang-lru cache with
// its own fixed capacity share of the total. Segment count is rounded up to
// a power of two so segment selection is a cheap mask instead of a modulo.
type SnapCache struct {
	segments []*cacheSegment
	mask     uint64
	disabled bool
}

type cacheSegment struct {
	mu    sync.Mutex
	cache *lru.Cache[snapCacheKey, ResolvedAddress]

	hits   int64
	misses int64
}

// SegmentStats reports one segment's occupancy and lifetime hit/miss counts,
// used by the engine's operability Stats() snapshot.
type SegmentStats struct {
	Len    int
	Hits   int64
	Misses int64
}

// NewSnapCache builds a cache of the given total capacity split across
// segmentCount segments (rounded up to a power of two, then lowered to the
// largest power of two not exceeding capacity if it would exceed it).
// capacity <= 0 disables caching (NewSnapCache returns a cache
// that never stores anything, rather than panicking, since a disabled
// cache is a legitimate startup configuration).
func NewSnapCache(capacity, segmentCount int) *SnapCache {
	if capacity <= 0 {
		capacity = 0
	}
	segmentCount = nextPowerOfTwo(segmentCount)
	if segmentCount < 1 {
		segmentCount = 1
	}
	if capacity > 0 && segmentCount > capacity {
		segmentCount = 1
		for segmentCount*2 <= capacity {
			segmentCount <<= 1
		}
	}

	perSegment := 1
	if capacity > 0 {
		perSegment = capacity / segmentCount
		if perSegment < 1 {
			perSegment = 1
		}
	}

	segments := make([]*cacheSegment, segmentCount)
	for i := range segments {
		c, _ := lru.New[snapCacheKey, ResolvedAddress](perSegment)
		segments[i] = &cacheSegment{cache: c}
	}
	return &SnapCache{segments: segments, mask: uint64(segmentCount - 1), disabled: capacity == 0}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (c *SnapCache) segmentFor(key snapCacheKey) *cacheSegment {
	h := fnv.New64a()
	var buf [8]byte
	h.Write([]byte(key.traitID))
	h.Write([]byte(key.strategyID))
	writeUint64(&buf, math.Float64bits(key.maxSnap))
	h.Write(buf[:])
	writeUint64(&buf, key.xBits)
	h.Write(buf[:])
	writeUint64(&buf, key.yBits)
	h.Write(buf[:])
	return c.segments[h.Sum64()&c.mask]
}

func writeUint64(buf *[8]byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

// Get returns a cached resolution for key, if present.
func (c *SnapCache) Get(key snapCacheKey) (ResolvedAddress, bool) {
	seg := c.segmentFor(key)
	seg.mu.Lock()
	v, ok := seg.cache.Get(key)
	seg.mu.Unlock()
	if ok {
		atomic.AddInt64(&seg.hits, 1)
	} else {
		atomic.AddInt64(&seg.misses, 1)
	}
	return v, ok
}

// Put stores a resolution for key.
func (c *SnapCache) Put(key snapCacheKey, value ResolvedAddress) {
	if c.disabled {
		return
	}
	seg := c.segmentFor(key)
	seg.mu.Lock()
	defer seg.mu.Unlock()
	seg.cache.Add(key, value)
}

// Stats returns a per-segment occupancy/hit-rate snapshot, in segment
// order, for the engine's operability Stats() snapshot.
func (c *SnapCache) Stats() []SegmentStats {
	out := make([]SegmentStats, len(c.segments))
	for i, seg := range c.segments {
		seg.mu.Lock()
		length := seg.cache.Len()
		seg.mu.Unlock()
		out[i] = SegmentStats{
			Len:    length,
			Hits:   atomic.LoadInt64(&seg.hits),
			Misses: atomic.LoadInt64(&seg.misses),
		}
	}
	return out
}

// canonicalizeCoordBits turns a float64 into stable hash bits, folding -0.0
// into +0.0 and every NaN bit pattern into a single canonical NaN so two
// requests for "the same" degenerate coordinate hit the same cache entry
// and the same dedup fingerprint.
func canonicalizeCoordBits(v float64) uint64 {
	if v == 0 {
		v = 0 // folds -0.0 into +0.0
	}
	if math.IsNaN(v) {
		return math.Float64bits(math.NaN())
	}
	return math.Float64bits(v)
}
