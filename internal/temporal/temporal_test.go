package temporal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taro-routing/taro/internal/temporal"
)

func TestResolve_LinearResolvesUTCDayOfWeek(t *testing.T) {
	r, err := temporal.New(temporal.Linear, temporal.UTC, "")
	require.NoError(t, err)

	// 1970-01-04 00:00:00 UTC (epoch day 3) was a Sunday.
	res := r.Resolve(3 * 86400)
	require.Equal(t, 0, res.DayOfWeek) // 0 = Sunday
	require.Equal(t, 0, res.SecondOfDay)
}

func TestResolve_CalendarUTCMatchesLinearDayOfWeek(t *testing.T) {
	r, err := temporal.New(temporal.Calendar, temporal.UTC, "")
	require.NoError(t, err)

	// 1970-01-05 (epoch day 4) was a Monday.
	res := r.Resolve(4*86400 + 3661) // +1h01m01s into the day
	require.Equal(t, 1, res.DayOfWeek) // 1 = Monday
	require.Equal(t, 3661, res.SecondOfDay)
}

func TestResolve_CalendarModelTimezoneShiftsBucket(t *testing.T) {
	r, err := temporal.New(temporal.Calendar, temporal.ModelTimezone, "America/New_York")
	require.NoError(t, err)

	// 2026-03-08 06:30:00 UTC = 01:30 local (EST, offset -18000s): hour
	// bucket 1.
	before := r.Resolve(1772951400)
	require.Equal(t, 1*3600+30*60, before.SecondOfDay)

	// 2026-03-08 07:30:00 UTC = 03:30 local (EDT, offset -14400s, after
	// spring-forward): hour bucket 3.
	after := r.Resolve(1772955000)
	require.Equal(t, 3*3600+30*60, after.SecondOfDay)
}

func TestResolve_DeterministicOnRepeat(t *testing.T) {
	r, err := temporal.New(temporal.Calendar, temporal.ModelTimezone, "America/New_York")
	require.NoError(t, err)

	first := r.Resolve(1772951400)
	second := r.Resolve(1772951400)
	require.Equal(t, first, second)
}

func TestNew_UnknownZoneFails(t *testing.T) {
	_, err := temporal.New(temporal.Calendar, temporal.ModelTimezone, "Not/AZone")
	require.Error(t, err)
}

func TestKind_ReportsBoundKind(t *testing.T) {
	r, err := temporal.New(temporal.Linear, temporal.UTC, "")
	require.NoError(t, err)
	require.Equal(t, temporal.Linear, r.Kind())
}
