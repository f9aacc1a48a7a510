// Package profile holds the per-profile day-of-week mask, bucket multiplier
// schedule, and default multiplier that the cost engine applies atop an
// edge's free-flow weight.
//
// Determinism: Store is immutable after New; Lookup is O(1).
package profile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
)

var (
	ErrZeroProfileID      = errors.New("profile: id must be > 0")
	ErrDuplicateProfileID = errors.New("profile: duplicate id")
	ErrEmptyBuckets       = errors.New("profile: bucket array must be non-empty")
	ErrBucketDivisibility = errors.New("profile: bucket_size must divide 86400 seconds evenly")
	ErrNegativeMultiplier = errors.New("profile: multiplier must be >= 0")
	ErrUnknownProfileID   = errors.New("profile: unknown id")
)

// SecondsPerDay mirrors tickclock.SecondsPerDay; duplicated as a literal
// constant here to keep this package import-free of tickclock (profile is a
// lower layer with no time-source dependency of its own).
const SecondsPerDay = 86400

// Profile is one (id, day_mask, buckets, default_multiplier) record. The
// zero value is not meaningful; construct via Store.
type Profile struct {
	ID                uint32
	DayMask           uint8 // bit i (0=Sunday..6=Saturday) set => day covered
	Buckets           []float64
	DefaultMultiplier float64
	BucketSeconds     int
}

// CoversDay reports whether DayMask covers the given day-of-week (0=Sunday).
func (p Profile) CoversDay(dayOfWeek int) bool {
	return p.DayMask&(1<<uint(dayOfWeek)) != 0
}

// Store is the immutable set of profiles indexed by id. id 0 is reserved
// (never assigned by the compiler) and is never stored, so Lookup(0)
// reports false; the cost engine applies a multiplier of 1.0 to any edge
// whose profile id is absent, so edges tagged profile-less still cost
// something sane. Real profiles must have id > 0.
type Store struct {
	byID map[uint32]Profile
}

// New validates each profile's invariants (bucket_size divides 86400s
// exactly, all multipliers >= 0, id > 0, no duplicate ids) and returns an
// immutable Store.
func New(profiles []Profile) (*Store, error) {
	byID := make(map[uint32]Profile, len(profiles))
	for _, p := range profiles {
		if p.ID == 0 {
			return nil, ErrZeroProfileID
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateProfileID, p.ID)
		}
		if len(p.Buckets) == 0 {
			return nil, fmt.Errorf("%w: profile %d", ErrEmptyBuckets, p.ID)
		}
		bucketSeconds := p.BucketSeconds
		if bucketSeconds <= 0 {
			bucketSeconds = SecondsPerDay / len(p.Buckets)
		}
		if bucketSeconds <= 0 || SecondsPerDay%bucketSeconds != 0 || SecondsPerDay/bucketSeconds != len(p.Buckets) {
			return nil, fmt.Errorf("%w: profile %d (B=%d, bucket_size=%d)", ErrBucketDivisibility, p.ID, len(p.Buckets), bucketSeconds)
		}
		if p.DefaultMultiplier < 0 {
			return nil, fmt.Errorf("%w: profile %d default", ErrNegativeMultiplier, p.ID)
		}
		for _, m := range p.Buckets {
			if m < 0 {
				return nil, fmt.Errorf("%w: profile %d bucket", ErrNegativeMultiplier, p.ID)
			}
		}
		p.BucketSeconds = bucketSeconds
		byID[p.ID] = p
	}
	return &Store{byID: byID}, nil
}

// Lookup returns the profile for id, or false if unknown.
func (s *Store) Lookup(id uint32) (Profile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Fingerprint returns a stable hash of every profile in the store,
// independent of map iteration order, for the orchestrator's landmark
// artifact signature check (see topology.Graph.Fingerprint).
func (s *Store) Fingerprint() uint64 {
	ids := make([]uint32, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	h := fnv.New64a()
	var buf [8]byte
	for _, id := range ids {
		p := s.byID[id]
		binary.LittleEndian.PutUint32(buf[:4], id)
		h.Write(buf[:4])
		binary.LittleEndian.PutUint32(buf[:4], uint32(p.DayMask))
		h.Write(buf[:4])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.DefaultMultiplier))
		h.Write(buf[:])
		for _, m := range p.Buckets {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// BucketIndex returns the discrete bucket index for secondOfDay under p's
// bucket size, clamped into [0, len(Buckets)).
func (p Profile) BucketIndex(secondOfDay int) int {
	if secondOfDay < 0 {
		secondOfDay = 0
	}
	idx := secondOfDay / p.BucketSeconds
	if idx >= len(p.Buckets) {
		idx = len(p.Buckets) - 1
	}
	return idx
}

// InterpolatedMultiplier linearly interpolates between adjacent bucket
// centers for secondOfDay, wrapping across the day boundary. Used by the
// "interpolated" cost sampling policy.
func (p Profile) InterpolatedMultiplier(secondOfDay int) float64 {
	b := len(p.Buckets)
	if b == 1 {
		return p.Buckets[0]
	}
	center := func(i int) float64 { return (float64(i) + 0.5) * float64(p.BucketSeconds) }

	idx := p.BucketIndex(secondOfDay)
	c := center(idx)
	var loIdx, hiIdx int
	var loCenter, hiCenter float64
	if float64(secondOfDay) < c {
		loIdx = (idx - 1 + b) % b
		hiIdx = idx
		loCenter = center(loIdx)
		if loIdx > idx {
			// loIdx wrapped around from the end of the day.
			loCenter -= float64(SecondsPerDay)
		}
		hiCenter = c
	} else {
		loIdx = idx
		hiIdx = (idx + 1) % b
		loCenter = c
		hiCenter = center(hiIdx)
		if hiIdx < idx {
			// hiIdx wrapped around to the start of the next day.
			hiCenter += float64(SecondsPerDay)
		}
	}
	span := hiCenter - loCenter
	if span <= 0 {
		return p.Buckets[idx]
	}
	t := (float64(secondOfDay) - loCenter) / span
	return p.Buckets[loIdx]*(1-t) + p.Buckets[hiIdx]*t
}
