package label_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/label"
)

func TestDominates_StrictlyBetterInBothWins(t *testing.T) {
	a := label.Label{Cost: 1, Arrival: 10}
	b := label.Label{Cost: 2, Arrival: 20}
	require.True(t, label.Dominates(a, b))
	require.False(t, label.Dominates(b, a))
}

func TestDominates_EqualInBothIsNotDomination(t *testing.T) {
	a := label.Label{Cost: 1, Arrival: 10}
	b := label.Label{Cost: 1, Arrival: 10}
	require.False(t, label.Dominates(a, b))
	require.False(t, label.Dominates(b, a))
}

func TestDominates_WorseInOneDimensionBlocksDomination(t *testing.T) {
	a := label.Label{Cost: 1, Arrival: 30}
	b := label.Label{Cost: 2, Arrival: 20}
	require.False(t, label.Dominates(a, b))
	require.False(t, label.Dominates(b, a))
}

func TestTryInsert_DominatedLabelRejected(t *testing.T) {
	s := label.NewStore(8)
	better := s.Add(label.Label{EdgeID: 1, Cost: 1, Arrival: 10})
	require.True(t, s.TryInsert(better))

	worse := s.Add(label.Label{EdgeID: 1, Cost: 2, Arrival: 20})
	require.False(t, s.TryInsert(worse))
	require.False(t, s.IsActive(worse))
	require.True(t, s.IsActive(better))
}

func TestTryInsert_DominatingLabelEvictsExisting(t *testing.T) {
	s := label.NewStore(8)
	worse := s.Add(label.Label{EdgeID: 1, Cost: 2, Arrival: 20})
	require.True(t, s.TryInsert(worse))

	better := s.Add(label.Label{EdgeID: 1, Cost: 1, Arrival: 10})
	require.True(t, s.TryInsert(better))

	require.False(t, s.IsActive(worse))
	require.True(t, s.IsActive(better))
	require.Equal(t, []int32{better}, s.Active(1))
}

func TestTryInsert_IncomparableLabelsBothSurvive(t *testing.T) {
	s := label.NewStore(8)
	a := s.Add(label.Label{EdgeID: 1, Cost: 1, Arrival: 20})
	b := s.Add(label.Label{EdgeID: 1, Cost: 2, Arrival: 10})
	require.True(t, s.TryInsert(a))
	require.True(t, s.TryInsert(b))
	require.True(t, s.IsActive(a))
	require.True(t, s.IsActive(b))
}

func TestReconstructEdges_WalksParentsToSource(t *testing.T) {
	s := label.NewStore(8)
	l0 := s.Add(label.Label{EdgeID: 5, ParentID: label.SourceParentID})
	l1 := s.Add(label.Label{EdgeID: 6, ParentID: l0})
	l2 := s.Add(label.Label{EdgeID: 7, ParentID: l1})

	require.Equal(t, []uint32{5, 6, 7}, s.ReconstructEdges(l2))
}

func TestReset_ClearsPoolAndActiveSetsWithoutReleasingCapacity(t *testing.T) {
	s := label.NewStore(8)
	capBefore := s.Capacity()
	id := s.Add(label.Label{EdgeID: 3, Cost: 1, Arrival: 1})
	require.True(t, s.TryInsert(id))
	require.Equal(t, 1, s.Len())

	s.Reset()

	require.Equal(t, 0, s.Len())
	require.Equal(t, capBefore, s.Capacity())
	require.Empty(t, s.Active(3))

	// Labels from the prior query are gone; a fresh label on the same edge
	// starts from an empty active set rather than inheriting stale state.
	freshID := s.Add(label.Label{EdgeID: 3, Cost: 5, Arrival: 5})
	require.True(t, s.TryInsert(freshID))
	require.Equal(t, []int32{freshID}, s.Active(3))
}
