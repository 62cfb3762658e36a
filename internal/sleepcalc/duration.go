// Package sleepcalc holds the pure time and calendar helpers behind sleep
// records: elapsed duration between a bedtime and a wake time, and the
// conversions between stored "YYYY-MM-DD" dates and their display forms.
//
// Every function is stateless and safe for concurrent use.
package sleepcalc

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock hour and minute with no date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay strictly parses "HH:MM" with hour in [0,23] and minute in [0,59].
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return TimeOfDay{}, fmt.Errorf("sleepcalc: %q is not HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("sleepcalc: invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("sleepcalc: invalid minute in %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// looseMinutes converts "HH:MM" to minutes since midnight without
// validating. Unparseable parts count as zero.
func looseMinutes(s string) int {
	h, m, _ := strings.Cut(s, ":")
	hour, _ := strconv.Atoi(strings.TrimSpace(h))
	minute, _ := strconv.Atoi(strings.TrimSpace(m))
	return hour*60 + minute
}

// ElapsedMinutes returns the minutes slept between bed and wake. A wake time
// earlier than the bed time is taken to be on the following day; equal
// times yield zero.
func ElapsedMinutes(bed, wake string) int {
	bedMin := looseMinutes(bed)
	wakeMin := looseMinutes(wake)
	if wakeMin < bedMin {
		wakeMin += minutesPerDay
	}
	return wakeMin - bedMin
}

// DurationTenths returns the sleep duration in tenths of an hour, rounded
// half up: 8h15m is 83, 45m is 8.
func DurationTenths(bed, wake string) int {
	return (ElapsedMinutes(bed, wake) + 3) / 6
}

// ComputeDurationHours returns the sleep duration in hours with exactly one
// fractional digit, e.g. "7.5". Inputs must already be valid HH:MM.
func ComputeDurationHours(bed, wake string) string {
	return FormatTenths(DurationTenths(bed, wake))
}

// FormatTenths renders a tenths-of-an-hour value as "H.T".
func FormatTenths(tenths int) string {
	sign := ""
	if tenths < 0 {
		sign = "-"
		tenths = -tenths
	}
	return fmt.Sprintf("%s%d.%d", sign, tenths/10, tenths%10)
}

// HoursToTenths converts a one-decimal hours value to integer tenths.
func HoursToTenths(hours float64) int {
	if hours < 0 {
		return -int(-hours*10 + 0.5)
	}
	return int(hours*10 + 0.5)
}
