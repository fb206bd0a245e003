package timebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ftNtEpoch   = 0
	ftUnixEpoch = 116444736000000000
	ftY2k       = 125911584000000000
	ftLeapDay   = 125962560000000000
	ftSubDay    = 132538032123450000
	ft2021      = 132539328000000000
)

func TestUnixEpochDelta(t *testing.T) {
	const expectedSeconds = -(int64(369*365+89) * 86400)
	assert.Equal(t, expectedSeconds, unixEpochDeltaSeconds)
	assert.Less(t, UnixEpochDelta().Seconds(), 0.0)
}

func TestFileTimeRoundTrip(t *testing.T) {
	for _, ft := range []uint64{ftNtEpoch, ftUnixEpoch, 2650467743990000000} {
		got := FromFileTime(ft).ToFileTime()
		assert.Equal(t, ft, got)
	}
}

func TestToSysFromSysRoundTripWholeSeconds(t *testing.T) {
	for _, ft := range []uint64{ftNtEpoch, ftUnixEpoch, ftY2k, ft2021} {
		f := FromFileTime(ft)
		sys := ToSys(f)
		back := FromSys(sys)
		assert.Equal(t, ft, back.ToFileTime())
	}
}

func TestToSysKnownValues(t *testing.T) {
	assert.Equal(t, int64(0), ToSys(FromFileTime(ftUnixEpoch)).Unix())
	assert.Equal(t, int64(10957*86400), ToSys(FromFileTime(ftY2k)).Unix())
	assert.Equal(t, int64(18628*86400), ToSys(FromFileTime(ft2021)).Unix())
}

func TestS1Epochs(t *testing.T) {
	nt := Decompose(FromFileTime(ftNtEpoch))
	require.Equal(t, CalendarTime{Year: 1601, Month: 1, Day: 1, Weekday: 1}, nt)

	unix := Decompose(FromFileTime(ftUnixEpoch))
	require.Equal(t, CalendarTime{Year: 1970, Month: 1, Day: 1, Weekday: 4}, unix)
}

func TestS2LeapDay(t *testing.T) {
	leap := Decompose(FromFileTime(ftLeapDay))
	require.Equal(t, CalendarTime{Year: 2000, Month: 2, Day: 29, Weekday: 2}, leap)
	assert.Equal(t, uint64(ftLeapDay), Recompose(leap).ToFileTime())
}

func TestS3SubSecond(t *testing.T) {
	got := Decompose(FromFileTime(ftSubDay))
	want := CalendarTime{
		Year: 2020, Month: 12, Day: 30, Weekday: 3,
		Hour: 12, Minute: 0, Second: 12, Millisecond: 345,
	}
	require.Equal(t, want, got)
}

func TestCalendarRoundTripKnownDates(t *testing.T) {
	cases := []uint64{ftNtEpoch, ftUnixEpoch, ftY2k, ftLeapDay, ftSubDay, ft2021}
	for _, ft := range cases {
		c := Decompose(FromFileTime(ft))
		assert.Equal(t, ft, Recompose(c).ToFileTime(), "round trip for filetime %d", ft)
	}
}

func TestRecomposeKnownDates(t *testing.T) {
	assert.Equal(t, uint64(ftNtEpoch), Recompose(CalendarTime{Year: 1601, Month: 1, Day: 1}).ToFileTime())
	assert.Equal(t, uint64(ftUnixEpoch), Recompose(CalendarTime{Year: 1970, Month: 1, Day: 1}).ToFileTime())
	assert.Equal(t, uint64(ftY2k), Recompose(CalendarTime{Year: 2000, Month: 1, Day: 1}).ToFileTime())
	assert.Equal(t, uint64(ftLeapDay), Recompose(CalendarTime{Year: 2000, Month: 2, Day: 29}).ToFileTime())
	assert.Equal(t, uint64(ftSubDay), Recompose(CalendarTime{
		Year: 2020, Month: 12, Day: 30, Hour: 12, Second: 12, Millisecond: 345,
	}).ToFileTime())
	assert.Equal(t, uint64(ft2021), Recompose(CalendarTime{Year: 2021, Month: 1, Day: 1}).ToFileTime())
}

func TestInvalidCalendarDatesRecomposeToZero(t *testing.T) {
	cases := []CalendarTime{
		{Year: 2000, Month: 2, Day: 30},  // Feb 30 never valid
		{Year: 2001, Month: 2, Day: 29},  // non-leap year
		{Year: 1900, Month: 2, Day: 29},  // century rule: 1900 not a leap year
		{Year: 2000, Month: 13, Day: 1},  // invalid month
		{Year: 2000, Month: 1, Day: 0},   // invalid day
	}
	for _, c := range cases {
		assert.Equal(t, uint64(0), Recompose(c).ToFileTime())
	}
}

func TestLeapYearCenturyRule(t *testing.T) {
	assert.False(t, isLeapYear(1900))
	assert.True(t, isLeapYear(2000))
	assert.True(t, isLeapYear(2020))
	assert.False(t, isLeapYear(2001))
}

func TestGuestClockSetScalarStoresScalar(t *testing.T) {
	g := NewGuestSystemClock()
	g.SetScalar(2.0)
	assert.Equal(t, 2.0, g.Scalar())
}

func TestCrossDomainConversionRoundTrip(t *testing.T) {
	g := NewGuestSystemClock()
	guestNow := g.Now()
	host := GuestToHost(g, false, guestNow)
	back := HostToGuest(g, false, host)
	// Allow a small tolerance: two independent Now() snapshots inside the
	// helper advance real wall-clock time between guestNow and back.
	delta := int64(back) - int64(guestNow)
	if delta < 0 {
		delta = -delta
	}
	assert.Less(t, delta, int64(ticksPerSecond)) // within one second of ticks
}

func TestCrossDomainConversionNoScaling(t *testing.T) {
	g := NewGuestSystemClock()
	g.SetScalar(4.0)
	now := HostSystemClock{}.Now()
	converted := GuestToHost(g, true, now)
	assert.InDelta(t, int64(now), int64(converted), float64(ticksPerSecond))
}
