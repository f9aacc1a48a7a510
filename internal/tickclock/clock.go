// Package tickclock provides epoch<->day/bucket arithmetic, per-day DST
// offset windows, and an injectable clock type (Clock, NewSystemClock,
// NewMockClock). The live overlay and the temporal resolver do not read a
// clock; they take the current instant as an explicit tick argument.
//
// Complexity: all lookups in this package are O(1) amortized except the
// first OffsetCache query for a given epoch day, which is O(zone
// transitions for that day) and is itself bounded (a day crosses at most
// one or two DST transitions in every real calendar).
// Concurrency: OffsetCache is read-mostly and safe for concurrent use
// without external locking; compute-if-absent is idempotent so two
// goroutines racing to fill the same day both produce the same windows.
package tickclock

import (
	"sync"
	"time"

	// Embeds the IANA zoneinfo database so CALENDAR/MODEL_TIMEZONE works
	// without depending on the host having system tzdata installed. No
	// third-party library in the retrieved corpus loads IANA zones; zone
	// loading here uses the standard library only, see DESIGN.md.
	_ "time/tzdata"

	"github.com/benbjohnson/clock"
)

// SecondsPerDay is the number of seconds in a civil day on the linear
// (UTC-only) timeline. CALENDAR days may be 23 or 25 hours at a DST
// transition; the offset cache accounts for that explicitly.
const SecondsPerDay = 86400

// Clock is the minimal time source this module depends on. Production code
// uses clock.New() (a thin wrapper over time.Now); tests use clock.NewMock()
// to freeze or step time deterministically.
type Clock = clock.Clock

// NewSystemClock returns the real wall-clock source.
func NewSystemClock() Clock { return clock.New() }

// NewMockClock returns a clock.Mock usable in tests, pinned to the given
// instant.
func NewMockClock(at time.Time) *clock.Mock {
	m := clock.NewMock()
	m.Set(at)
	return m
}

// Window is one contiguous span of a civil day with a single UTC offset.
// [Start, End) are UTC epoch seconds; a day with a DST transition inside it
// is covered by two (or, in exotic zones, more) windows.
type Window struct {
	Start  int64
	End    int64
	Offset int32 // seconds east of UTC
}

// OffsetCache maps an epoch day index (epoch_second / SecondsPerDay, using
// floor division) to the ordered list of offset windows covering that civil
// day in a fixed *time.Location. It is populated lazily and is safe for
// concurrent read/write.
type OffsetCache struct {
	loc   *time.Location
	days  sync.Map // map[int64][]Window
}

// NewOffsetCache builds a cache bound to loc. loc must be non-nil; pass
// time.UTC for the UTC timezone policy.
func NewOffsetCache(loc *time.Location) *OffsetCache {
	if loc == nil {
		loc = time.UTC
	}
	return &OffsetCache{loc: loc}
}

// EpochDay returns the floor-divided day index for an epoch second.
func EpochDay(epochSecond int64) int64 {
	// Floor division, not truncation: negative epochs (pre-1970) must still
	// floor toward negative infinity for day boundaries to be contiguous.
	if epochSecond >= 0 {
		return epochSecond / SecondsPerDay
	}
	return -((-epochSecond + SecondsPerDay - 1) / SecondsPerDay)
}

// OffsetSeconds returns the UTC offset, in seconds, applicable at
// epochSecond. On any unexpected internal anomaly (a zone lookup that
// somehow yields zero windows) it falls back to the zone's raw offset at
// that instant rather than raising: the one case where silent recovery beats
// aborting a query over an internal cache anomaly.
func (c *OffsetCache) OffsetSeconds(epochSecond int64) int32 {
	day := EpochDay(epochSecond)
	windows := c.windowsForDay(day)
	for _, w := range windows {
		if epochSecond >= w.Start && epochSecond < w.End {
			return w.Offset
		}
	}
	// Fallback: ask time package directly for this instant's raw offset.
	_, offset := time.Unix(epochSecond, 0).In(c.loc).Zone()
	return int32(offset)
}

// windowsForDay returns (computing and caching if absent) the offset
// windows for the given epoch day index.
func (c *OffsetCache) windowsForDay(day int64) []Window {
	if v, ok := c.days.Load(day); ok {
		return v.([]Window)
	}
	windows := computeWindows(c.loc, day)
	actual, _ := c.days.LoadOrStore(day, windows)
	return actual.([]Window)
}

// computeWindows walks the zone's transitions covering [dayStart, dayEnd) by
// sampling offsets at a handful of probe points and bisecting toward any
// transition found between them. Real zones have at most one or two
// transitions in a 24h span, so this is cheap and exact to the second.
func computeWindows(loc *time.Location, day int64) []Window {
	dayStart := day * SecondsPerDay
	dayEnd := dayStart + SecondsPerDay

	startOffset := rawOffset(loc, dayStart)
	endOffset := rawOffset(loc, dayEnd-1)
	if startOffset == endOffset {
		return []Window{{Start: dayStart, End: dayEnd, Offset: startOffset}}
	}

	// Exactly one transition inside the day (the overwhelmingly common
	// case for real-world zones): bisect to find it to the second.
	lo, hi := dayStart, dayEnd-1
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if rawOffset(loc, mid) == startOffset {
			lo = mid
		} else {
			hi = mid
		}
	}
	transition := hi
	return []Window{
		{Start: dayStart, End: transition, Offset: startOffset},
		{Start: transition, End: dayEnd, Offset: endOffset},
	}
}

func rawOffset(loc *time.Location, epochSecond int64) int32 {
	_, offset := time.Unix(epochSecond, 0).In(loc).Zone()
	return int32(offset)
}

// Len reports the number of distinct epoch days whose offset windows have
// been computed and cached so far, for operability stats.
func (c *OffsetCache) Len() int {
	n := 0
	c.days.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// SaturatingAddTicks adds delta seconds (rounded) to base, saturating at the
// int64 maximum instead of wrapping. Arrival must never wrap and must never
// end up before the entry instant.
func SaturatingAddTicks(base int64, deltaSeconds float64) int64 {
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	rounded := roundHalfAwayFromZero(deltaSeconds)
	if rounded > float64(int64max-base) {
		return int64max
	}
	return base + int64(rounded)
}

const int64max = int64(^uint64(0) >> 1)

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 1<<53 || x <= -(1<<53) {
		return x // already integral; an int64 conversion could overflow
	}
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return -float64(int64(-x + 0.5))
}
