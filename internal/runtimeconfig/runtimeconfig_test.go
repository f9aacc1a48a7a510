package runtimeconfig_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/budget"
	"github.com/taro-routing/taro/internal/runtimeconfig"
	"github.com/taro-routing/taro/internal/temporal"
	"github.com/taro-routing/taro/internal/transition"
)

func TestDefault_HasConservativeBaseline(t *testing.T) {
	cfg := runtimeconfig.Default()
	require.Equal(t, "DEFAULT", cfg.AddressingTraitID)
	require.Equal(t, transition.EdgeBased, cfg.TransitionTrait)
	require.Equal(t, temporal.Linear, cfg.TemporalKind)
	require.Equal(t, 4096, cfg.OverlayCapacity)
	require.Equal(t, 16, cfg.MatrixNativeThreshold)
}

func TestNew_AppliesOptionsInOrder(t *testing.T) {
	cfg := runtimeconfig.New(
		runtimeconfig.WithOverlayCapacity(10),
		runtimeconfig.WithOverlayCapacity(20),
	)
	require.Equal(t, 20, cfg.OverlayCapacity)
}

func TestNew_NilOptionIsSkipped(t *testing.T) {
	cfg := runtimeconfig.New(nil, runtimeconfig.WithMinSecondsPerUnit(2.0))
	require.Equal(t, 2.0, cfg.MinSecondsPerUnit)
}

func TestWithAddressingTrait_PanicsOnEmptyID(t *testing.T) {
	require.Panics(t, func() { runtimeconfig.WithAddressingTrait("") })
}

func TestWithOverlayCapacity_PanicsOnNonPositive(t *testing.T) {
	require.Panics(t, func() { runtimeconfig.WithOverlayCapacity(0) })
	require.Panics(t, func() { runtimeconfig.WithOverlayCapacity(-1) })
}

func TestWithCalendarTemporal_BindsPolicyAndZone(t *testing.T) {
	cfg := runtimeconfig.New(runtimeconfig.WithCalendarTemporal(temporal.ModelTimezone, "America/New_York"))
	require.Equal(t, temporal.Calendar, cfg.TemporalKind)
	require.Equal(t, temporal.ModelTimezone, cfg.TimezonePolicy)
	require.Equal(t, "America/New_York", cfg.TimezoneID)
}

func TestWithLinearTemporal_ResetsZoneAndPolicy(t *testing.T) {
	cfg := runtimeconfig.New(
		runtimeconfig.WithCalendarTemporal(temporal.ModelTimezone, "America/New_York"),
		runtimeconfig.WithLinearTemporal(),
	)
	require.Equal(t, temporal.Linear, cfg.TemporalKind)
	require.Equal(t, temporal.UTC, cfg.TimezonePolicy)
	require.Equal(t, "", cfg.TimezoneID)
}

func TestWithRouteBudget_SetsCaps(t *testing.T) {
	cfg := runtimeconfig.New(runtimeconfig.WithRouteBudget(budget.Caps{MaxSettled: 100}))
	require.Equal(t, 100, cfg.RouteBudget.MaxSettled)
}

func TestWithMatrixStrategy_SetsThresholdAndConcurrency(t *testing.T) {
	cfg := runtimeconfig.New(runtimeconfig.WithMatrixStrategy(32, 4))
	require.Equal(t, 32, cfg.MatrixNativeThreshold)
	require.Equal(t, 4, cfg.MatrixRowConcurrency)
}
