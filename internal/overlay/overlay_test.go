package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/overlay"
)

func TestUpsert_RejectsExpiredAtIngest(t *testing.T) {
	o := overlay.New(4)
	require.False(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 0.5, ValidUntilTick: 100}, 100))
	require.Equal(t, 0, o.Len())
}

func TestUpsert_ReplacesExistingEdge(t *testing.T) {
	o := overlay.New(4)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 0.5, ValidUntilTick: 200}, 100))
	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 0.25, ValidUntilTick: 300}, 150))
	require.Equal(t, 1, o.Len())

	snap := o.TakeSnapshot(150)
	factor, active := snap.Lookup(1)
	require.True(t, active)
	require.Equal(t, 0.25, factor)
}

func TestUpsert_EvictsEarliestExpiringWhenOverCapacity(t *testing.T) {
	o := overlay.New(2)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 1, ValidUntilTick: 100}, 0))
	require.True(t, o.Upsert(overlay.Update{EdgeID: 2, SpeedFactor: 1, ValidUntilTick: 200}, 0))
	// Edge 3 expires later than both existing entries, so it displaces
	// edge 1 (the earliest-expiring of the existing set).
	require.True(t, o.Upsert(overlay.Update{EdgeID: 3, SpeedFactor: 1, ValidUntilTick: 300}, 0))

	require.Equal(t, 2, o.Len())
	snap := o.TakeSnapshot(0)
	_, active1 := snap.Lookup(1)
	_, active2 := snap.Lookup(2)
	_, active3 := snap.Lookup(3)
	require.False(t, active1)
	require.True(t, active2)
	require.True(t, active3)
}

func TestUpsert_RejectsNewEntryThatWouldBeEarliestItself(t *testing.T) {
	o := overlay.New(2)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 1, ValidUntilTick: 100}, 0))
	require.True(t, o.Upsert(overlay.Update{EdgeID: 2, SpeedFactor: 1, ValidUntilTick: 200}, 0))
	// Edge 3 expires earlier than every existing entry, so at capacity it
	// never displaces anything: it is itself the earliest-expiring
	// candidate and is rejected.
	require.False(t, o.Upsert(overlay.Update{EdgeID: 3, SpeedFactor: 1, ValidUntilTick: 50}, 0))

	require.Equal(t, 2, o.Len())
	snap := o.TakeSnapshot(0)
	_, active1 := snap.Lookup(1)
	_, active2 := snap.Lookup(2)
	_, active3 := snap.Lookup(3)
	require.True(t, active1)
	require.True(t, active2)
	require.False(t, active3)
}

func TestApplyBatch_AccountingSumsToBatchSize(t *testing.T) {
	o := overlay.New(2)
	updates := []overlay.Update{
		{EdgeID: 1, SpeedFactor: 1, ValidUntilTick: 100},  // accepted
		{EdgeID: 2, SpeedFactor: 1, ValidUntilTick: 5},    // expired (now=10)
		{EdgeID: 3, SpeedFactor: 1, ValidUntilTick: 200},  // accepted, fills capacity (2)
		{EdgeID: 4, SpeedFactor: 1, ValidUntilTick: 50},   // rejected capacity: earlier than edge 1
		{EdgeID: 5, SpeedFactor: 1, ValidUntilTick: 1000}, // accepted, evicts edge 1 (earliest)
	}
	result := o.ApplyBatch(updates, 10)

	total := result.Accepted + result.RejectedExpiredAtIngest + result.RejectedCapacity
	require.Equal(t, len(updates), total)
	require.Equal(t, 1, result.RejectedExpiredAtIngest)
	require.Equal(t, 1, result.RejectedCapacity)
	require.Equal(t, 3, result.Accepted)
}

func TestTakeSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	o := overlay.New(4)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 0.5, ValidUntilTick: 1000}, 0))
	snap := o.TakeSnapshot(0)

	require.True(t, o.Upsert(overlay.Update{EdgeID: 1, SpeedFactor: 0.1, ValidUntilTick: 2000}, 0))

	factor, active := snap.Lookup(1)
	require.True(t, active)
	require.Equal(t, 0.5, factor, "snapshot must not observe writes that happen after it was taken")
}

func TestSnapshotLookup_BlockedWhenFactorZero(t *testing.T) {
	o := overlay.New(4)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 7, SpeedFactor: 0, ValidUntilTick: 1000}, 0))
	snap := o.TakeSnapshot(0)
	factor, active := snap.Lookup(7)
	require.True(t, active)
	require.Equal(t, 0.0, factor)
}

func TestSnapshotLookup_ExpiredRelativeToSnapshotInstant(t *testing.T) {
	o := overlay.New(4)
	require.True(t, o.Upsert(overlay.Update{EdgeID: 7, SpeedFactor: 0.5, ValidUntilTick: 100}, 0))
	snap := o.TakeSnapshot(150)
	_, active := snap.Lookup(7)
	require.False(t, active, "an entry with valid_until <= snapshot instant must not be visible")
}

func TestSnapshotLookup_NilSnapshotIsInactiveEverywhere(t *testing.T) {
	var snap *overlay.Snapshot
	_, active := snap.Lookup(42)
	require.False(t, active)
	require.Equal(t, 0, snap.Len())
}
