package budget_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/reason"
)

func TestTracker_UnboundedCapsNeverFail(t *testing.T) {
	tr := budget.NewTracker(budget.Caps{})
	for i := 0; i < 1000; i++ {
		require.NoError(t, tr.Settle())
		require.NoError(t, tr.Label())
		require.NoError(t, tr.Frontier(i))
	}
	require.Equal(t, 1000, tr.Settled())
}

func TestTracker_SettleFailsOncePastCap(t *testing.T) {
	tr := budget.NewTracker(budget.Caps{MaxSettled: 2})
	require.NoError(t, tr.Settle())
	require.NoError(t, tr.Settle())
	err := tr.Settle()
	require.Error(t, err)
	require.Equal(t, reason.CodeSearchBudgetExceeded, reason.CodeOf(err))
}

func TestTracker_LabelFailsOncePastCap(t *testing.T) {
	tr := budget.NewTracker(budget.Caps{MaxLabels: 1})
	require.NoError(t, tr.Label())
	require.Error(t, tr.Label())
}

func TestTracker_FrontierFailsOncePastCap(t *testing.T) {
	tr := budget.NewTracker(budget.Caps{MaxFrontier: 3})
	require.NoError(t, tr.Frontier(3))
	require.Error(t, tr.Frontier(4))
}

func TestRowTracker_PerRowCapIndependentOfOtherRows(t *testing.T) {
	rt := budget.NewRowTracker(budget.MatrixCaps{RowWork: 1})
	rowA := rt.StartRow()
	rowB := rt.StartRow()
	require.NoError(t, rowA.Settle())
	require.Error(t, rowA.Settle())
	// rowB has its own independent row counter.
	require.NoError(t, rowB.Settle())
}

func TestRowTracker_RequestWorkAccumulatesAcrossRows(t *testing.T) {
	rt := budget.NewRowTracker(budget.MatrixCaps{RequestWork: 3})
	rowA := rt.StartRow()
	rowB := rt.StartRow()
	require.NoError(t, rowA.Settle())
	require.NoError(t, rowA.Settle())
	require.NoError(t, rowB.Settle())
	require.Equal(t, 3, rt.RequestWork())

	err := rowB.Settle()
	require.Error(t, err)
	require.Equal(t, reason.CodeMatrixSearchBudgetExceeded, reason.CodeOf(err))
}

func TestRowScope_LabelAndFrontierCaps(t *testing.T) {
	rt := budget.NewRowTracker(budget.MatrixCaps{RowLabels: 1, RowFrontier: 2})
	row := rt.StartRow()
	require.NoError(t, row.Label())
	require.Error(t, row.Label())

	require.NoError(t, row.Frontier(2))
	require.Error(t, row.Frontier(3))
}
