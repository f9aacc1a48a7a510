// Package temporal implements the LINEAR / CALENDAR temporal trait:
// resolving an entry-tick instant to a
// day-of-week and second-of-day, either ignoring the calendar entirely
// (LINEAR) or resolving in a bound timezone policy (CALENDAR).
package temporal

import (
	"time"

	"github.com/taro-routing/taro/internal/reason"
	"github.com/taro-routing/taro/internal/tickclock"
)

// Kind selects the temporal trait.
type Kind int

const (
	Linear Kind = iota
	Calendar
)

// TimezonePolicy selects which zone a CALENDAR trait resolves against.
type TimezonePolicy int

const (
	UTC TimezonePolicy = iota
	ModelTimezone
)

// Resolution is the result of resolving one entry-tick instant: the
// day-of-week (0=Sunday..6=Saturday) and the second-of-day within that
// civil day, both already adjusted for any applicable UTC offset.
type Resolution struct {
	DayOfWeek   int
	SecondOfDay int
}

// Resolver is the immutable, startup-bound temporal context. Construct once
// via New and share across all queries; it holds no per-query state.
type Resolver struct {
	kind   Kind
	policy TimezonePolicy
	loc    *time.Location
	cache  *tickclock.OffsetCache
}

// New builds a Resolver. For Kind=Linear, policy/zoneID are ignored. For
// Kind=Calendar with TimezonePolicy=ModelTimezone, zoneID must name a valid
// IANA zone (e.g. "America/New_York"); UTC requires no zoneID.
func New(kind Kind, policy TimezonePolicy, zoneID string) (*Resolver, error) {
	loc := time.UTC
	if kind == Calendar && policy == ModelTimezone {
		var err error
		loc, err = time.LoadLocation(zoneID)
		if err != nil {
			return nil, reason.Wrap(reason.CodeTemporalResolutionFailure, "unknown model timezone: "+zoneID, err)
		}
	}
	return &Resolver{
		kind:   kind,
		policy: policy,
		loc:    loc,
		cache:  tickclock.NewOffsetCache(loc),
	}, nil
}

// Resolve computes the (day-of-week, second-of-day) pair for entryTicks,
// expressed in seconds since the Unix epoch. LINEAR ignores the zone
// entirely and resolves against UTC only; CALENDAR applies the bound
// zone's offset.
func (r *Resolver) Resolve(entryTicksSeconds int64) Resolution {
	if r.kind == Linear {
		return resolveUTC(entryTicksSeconds)
	}
	offset := r.cache.OffsetSeconds(entryTicksSeconds)
	local := entryTicksSeconds + int64(offset)
	return resolveUTC(local)
}

func resolveUTC(seconds int64) Resolution {
	day := tickclock.EpochDay(seconds)
	secondOfDay := int(seconds - day*tickclock.SecondsPerDay)
	if secondOfDay < 0 {
		secondOfDay += tickclock.SecondsPerDay
	}
	// 1970-01-01 (epoch day 0) was a Thursday: day-of-week index 4 with
	// 0=Sunday. Shift so arbitrary (possibly negative) day indices map into
	// [0,6] without relying on time.Time construction on the hot path.
	dow := int((day+4)%7 + 7)
	dow %= 7
	return Resolution{DayOfWeek: dow, SecondOfDay: secondOfDay}
}

// Kind reports the resolver's temporal trait.
func (r *Resolver) Kind() Kind { return r.kind }

// OffsetCacheSize reports the number of distinct epoch days whose DST
// offset windows have been computed and cached so far, for the engine's
// operability Stats() snapshot.
func (r *Resolver) OffsetCacheSize() int { return r.cache.Len() }
