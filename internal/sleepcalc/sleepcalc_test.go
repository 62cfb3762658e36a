package sleepcalc

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDurationHours(t *testing.T) {
	cases := []struct {
		bed, wake, want string
	}{
		{"23:30", "07:00", "7.5"},
		{"07:00", "23:30", "16.5"},
		{"23:00", "23:00", "0.0"},
		{"00:00", "00:00", "0.0"},
		{"22:00", "06:15", "8.3"},
		{"22:00", "22:45", "0.8"},
		{"22:00", "22:01", "0.0"},
		{"00:01", "00:00", "24.0"},
		{"21:10", "05:50", "8.7"},
	}
	for _, tc := range cases {
		t.Run(tc.bed+"-"+tc.wake, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeDurationHours(tc.bed, tc.wake))
		})
	}
}

func TestDuration_SameDayAndRollover(t *testing.T) {
	for bed := 0; bed < minutesPerDay; bed += 37 {
		for wake := 0; wake < minutesPerDay; wake += 41 {
			b := fmt.Sprintf("%02d:%02d", bed/60, bed%60)
			w := fmt.Sprintf("%02d:%02d", wake/60, wake%60)
			elapsed := ElapsedMinutes(b, w)
			if wake >= bed {
				assert.Equal(t, wake-bed, elapsed, "%s -> %s", b, w)
			} else {
				assert.Equal(t, wake+minutesPerDay-bed, elapsed, "%s -> %s", b, w)
			}
			assert.GreaterOrEqual(t, elapsed, 0)
			assert.Less(t, elapsed, minutesPerDay)
		}
	}
}

func TestDuration_EqualTimesAreZero(t *testing.T) {
	for m := 0; m < minutesPerDay; m += 7 {
		tod := TimeOfDay{Hour: m / 60, Minute: m % 60}.String()
		assert.Equal(t, "0.0", ComputeDurationHours(tod, tod))
	}
}

func TestDurationTenths_RoundsHalfUp(t *testing.T) {
	// 15 and 45 minute remainders land exactly on .x5
	assert.Equal(t, 83, DurationTenths("22:00", "06:15"))
	assert.Equal(t, 78, DurationTenths("22:00", "05:45"))
	assert.Equal(t, 2, DurationTenths("10:00", "10:09"))
	assert.Equal(t, 1, DurationTenths("10:00", "10:08"))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 7, Minute: 5}, tod)
	assert.Equal(t, 425, tod.Minutes())
	assert.Equal(t, "07:05", tod.String())

	for _, bad := range []string{"", "7:05", "24:00", "12:60", "ab:cd", "12-30", "12:3"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatTenths(t *testing.T) {
	assert.Equal(t, "0.0", FormatTenths(0))
	assert.Equal(t, "12.3", FormatTenths(123))
	assert.Equal(t, "-1.5", FormatTenths(-15))
	assert.Equal(t, 75, HoursToTenths(7.5))
	assert.Equal(t, 83, HoursToTenths(8.3))
}

func TestFormatForDisplay(t *testing.T) {
	assert.Equal(t, "05/03/2024", FormatForDisplay("2024-03-05"))
	assert.Equal(t, "01/01/2024", FormatForDisplay("2024-01-01"))
	assert.Equal(t, "", FormatForDisplay(""))
	assert.Equal(t, "2024-03", FormatForDisplay("2024-03"))
	assert.Equal(t, "garbage", FormatForDisplay("garbage"))
}

func TestFormatForDisplay_RoundTrip(t *testing.T) {
	start := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i += 13 {
		d := start.AddDate(0, 0, i).Format(DateLayout)
		parts := strings.Split(FormatForDisplay(d), "/")
		require.Len(t, parts, 3)
		assert.Equal(t, d, parts[2]+"-"+parts[1]+"-"+parts[0])
	}
}

func TestFormatShort(t *testing.T) {
	assert.Equal(t, "05/03", FormatShort("2024-03-05"))
	assert.Equal(t, "", FormatShort(""))
	assert.Equal(t, "nope", FormatShort("nope"))
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Ter", WeekdayName("2024-03-05", false))
	assert.Equal(t, "Terça", WeekdayName("2024-03-05", true))
	assert.Equal(t, "Dom", WeekdayName("2024-03-03", false))
	assert.Equal(t, "Domingo", WeekdayName("2024-03-03", true))
	assert.Equal(t, "Segunda", WeekdayName("2024-01-01", true))
	assert.Equal(t, "Sáb", WeekdayName("2024-03-09", false))
	assert.Equal(t, "", WeekdayName("", false))
	assert.Equal(t, "", WeekdayName("2024-xx-01", true))
}

func TestWeekdayName_IgnoresHostZone(t *testing.T) {
	orig := time.Local
	t.Cleanup(func() { time.Local = orig })

	for _, zone := range []string{"Pacific/Kiritimati", "Pacific/Pago_Pago", "UTC"} {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			t.Skipf("zone data unavailable: %v", err)
		}
		time.Local = loc
		assert.Equal(t, "Ter", WeekdayName("2024-03-05", false), zone)
	}
}

func TestTodayLocalDate(t *testing.T) {
	lisbon := time.FixedZone("WEST", 60*60)
	// 23:30 UTC on the 4th is already the 5th one hour east
	clock := FixedClock{T: time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC).In(lisbon)}
	assert.Equal(t, "2024-03-05", TodayLocalDate(clock))

	clock = FixedClock{T: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-01-09", TodayLocalDate(clock))
}

func TestParseDate(t *testing.T) {
	y, m, d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, [3]int{2024, 2, 29}, [3]int{y, m, d})

	_, _, _, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	_, _, _, err = ParseDate("")
	assert.Error(t, err)
}
