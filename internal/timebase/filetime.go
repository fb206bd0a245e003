// Package timebase implements the guest time base: an epoch-1601
// 100-nanosecond clock with host and guest domains, a runtime-adjustable
// scalar between them, and conversions to and from the epoch-1970 system
// clock. Calendar decomposition is built on the standard library's proleptic
// Gregorian time.Time rather than a hand-rolled civil calendar — no
// calendar/date library appears anywhere in the retrieval pack, and
// time.Date already implements the exact leap-year rule (divisible by 4,
// not by 100 unless also by 400) the test suite pins.
package timebase

import "time"

// FileTime is a 64-bit count of 100-nanosecond intervals since
// 1601-01-01T00:00:00Z, the canonical timestamp on the guest boundary.
type FileTime uint64

const ticksPerSecond = 10_000_000

// unixEpochDeltaSeconds is the offset, in seconds, from the system clock's
// 1970 epoch to the FILETIME 1601 epoch: 369 years times 365 days plus 89
// leap days (1604 through 1968 inclusive, every 4 years except century
// years not divisible by 400), negated because 1601 precedes 1970.
const unixEpochDeltaSeconds int64 = -(369*365 + 89) * 86400

// UnixEpochDelta returns the compile-time delta between the FILETIME epoch
// and the system clock epoch, as a signed duration.
func UnixEpochDelta() time.Duration {
	return time.Duration(unixEpochDeltaSeconds) * time.Second
}

// FromFileTime and ToFileTime are declared as identity casts to match the
// component design's description of the conversion; FileTime already is the
// 64-bit representation, so there is no separate time_point wrapper type.
func FromFileTime(v uint64) FileTime { return FileTime(v) }
func (f FileTime) ToFileTime() uint64 { return uint64(f) }

// ToSys converts a Host-domain FileTime to the standard library's system
// clock representation. Only meaningful for the Host domain — Guest-domain
// values must go through a cross-domain conversion first.
func ToSys(f FileTime) time.Time {
	ticks := int64(f)
	secs := ticks / ticksPerSecond
	rem := ticks % ticksPerSecond
	nanos := rem * 100
	return time.Unix(secs+unixEpochDeltaSeconds, nanos).UTC()
}

// FromSys converts a system_clock instant to a Host-domain FileTime.
func FromSys(t time.Time) FileTime {
	unixSecs := t.Unix()
	nanos := int64(t.Nanosecond())
	secs1601 := unixSecs - unixEpochDeltaSeconds
	ticks := secs1601*ticksPerSecond + nanos/100
	return FileTime(ticks)
}

// CalendarTime mirrors RtlTimeToTimeFields's decomposed representation.
// Weekday follows the c_encoding convention: 0=Sunday .. 6=Saturday, which
// is exactly time.Weekday's own numbering.
type CalendarTime struct {
	Year         int
	Month        int
	Day          int
	Weekday      int
	Hour         int
	Minute       int
	Second       int
	Millisecond  int
}

// Decompose converts a FileTime to its calendar representation.
func Decompose(f FileTime) CalendarTime {
	t := ToSys(f)
	return CalendarTime{
		Year:        t.Year(),
		Month:       int(t.Month()),
		Day:         t.Day(),
		Weekday:     int(t.Weekday()),
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / 1_000_000,
	}
}

// isLeapYear applies the exact 4/100/400 rule the test suite pins at 1900
// (non-leap) and 2000 (leap).
func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

var daysInMonthTable = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysInMonth(year, month int) int {
	if month == 2 && isLeapYear(year) {
		return 29
	}
	return daysInMonthTable[month-1]
}

// validCalendarDate reports whether (year, month, day) is a well-formed
// Gregorian date, rejecting month 13, day 0, Feb 30, and Feb 29 of
// non-leap years including the 1900 century-rule case.
func validCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > daysInMonth(year, month) {
		return false
	}
	return true
}

// Recompose converts a calendar representation back to a FileTime. Invalid
// calendar dates (per validCalendarDate) recompose to the sentinel zero,
// matching RtlTimeFieldsToTime's behavior for a rejected year_month_day.
func Recompose(c CalendarTime) FileTime {
	if !validCalendarDate(c.Year, c.Month, c.Day) {
		return 0
	}
	t := time.Date(c.Year, time.Month(c.Month), c.Day,
		c.Hour, c.Minute, c.Second, c.Millisecond*1_000_000, time.UTC)
	return FromSys(t)
}
