package sleepcalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the sortable form in which record dates are stored.
const DateLayout = "2006-01-02"

var (
	weekdaysShort = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}
	weekdaysLong  = [7]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}
)

// Clock supplies the current instant. Its location decides what "today" is.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock in Location, or the host zone when nil.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// TodayLocalDate returns the clock's calendar date as "YYYY-MM-DD".
func TodayLocalDate(c Clock) string {
	y, m, d := c.Now().Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// splitDate breaks "YYYY-MM-DD" into its three textual parts. ok is false
// when fewer than three non-empty parts exist.
func splitDate(date string) (y, m, d string, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// FormatForDisplay converts "YYYY-MM-DD" to "DD/MM/YYYY". Empty input gives
// "", anything else it cannot split is returned unchanged.
func FormatForDisplay(date string) string {
	if date == "" {
		return ""
	}
	y, m, d, ok := splitDate(date)
	if !ok {
		return date
	}
	return d + "/" + m + "/" + y
}

// FormatShort converts "YYYY-MM-DD" to "DD/MM" for chart labels, with the
// same fallbacks as FormatForDisplay.
func FormatShort(date string) string {
	if date == "" {
		return ""
	}
	_, m, d, ok := splitDate(date)
	if !ok {
		return date
	}
	return d + "/" + m
}

// ParseDate strictly parses "YYYY-MM-DD" into its numeric parts and checks
// that the day exists in that month.
func ParseDate(date string) (year, month, day int, err error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("sleepcalc: invalid date %q: %w", date, err)
	}
	return t.Year(), int(t.Month()), t.Day(), nil
}

// localDate builds a calendar date from the numeric parts of "YYYY-MM-DD".
// Out-of-range months and days normalise the way time.Date does.
func localDate(date string) (time.Time, bool) {
	ys, ms, ds, ok := splitDate(date)
	if !ok {
		return time.Time{}, false
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(ds)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), true
}

// WeekdayName returns the Portuguese weekday for a "YYYY-MM-DD" date, either
// abbreviated ("Ter") or in full ("Terça"). Unparseable input gives "".
func WeekdayName(date string, long bool) string {
	t, ok := localDate(date)
	if !ok {
		return ""
	}
	if long {
		return weekdaysLong[t.Weekday()]
	}
	return weekdaysShort[t.Weekday()]
}
