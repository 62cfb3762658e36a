package service

import (
	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
)

// ChartWindow is how many of the most recent records the chart shows.
const ChartWindow = 14

type SleepStats struct {
	Average string `json:"avg"`
	Best    string `json:"best"`
	Worst   string `json:"worst"`
	Total   int    `json:"total"`
}

type ChartPoint struct {
	Date    string  `json:"date"`
	Label   string  `json:"label"`
	Weekday string  `json:"weekday"`
	Hours   float64 `json:"hours"`
}

// CalculateSleepStats summarises records. Values carry one decimal; the
// average rounds half up. No records gives "0.0" everywhere.
func CalculateSleepStats(records []internal.SleepRecord) SleepStats {
	if len(records) == 0 {
		return SleepStats{Average: "0.0", Best: "0.0", Worst: "0.0"}
	}
	n := len(records)
	sum := 0
	best := sleepcalc.HoursToTenths(records[0].Hours)
	worst := best
	for _, r := range records {
		t := sleepcalc.HoursToTenths(r.Hours)
		sum += t
		if t > best {
			best = t
		}
		if t < worst {
			worst = t
		}
	}
	avg := (2*sum + n) / (2 * n)
	return SleepStats{
		Average: sleepcalc.FormatTenths(avg),
		Best:    sleepcalc.FormatTenths(best),
		Worst:   sleepcalc.FormatTenths(worst),
		Total:   n,
	}
}

// ChartSeries takes the newest ChartWindow records (input is newest first)
// and returns them oldest first with compact date labels.
func ChartSeries(records []internal.SleepRecord) []ChartPoint {
	n := len(records)
	if n > ChartWindow {
		n = ChartWindow
	}
	points := make([]ChartPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		r := records[i]
		points = append(points, ChartPoint{
			Date:    r.Date,
			Label:   sleepcalc.FormatShort(r.Date),
			Weekday: sleepcalc.WeekdayName(r.Date, false),
			Hours:   r.Hours,
		})
	}
	return points
}

// QualityLabel grades a night: 7h or more is good, 6h or more average.
func QualityLabel(hours float64) string {
	t := sleepcalc.HoursToTenths(hours)
	switch {
	case t >= 70:
		return "Boa"
	case t >= 60:
		return "Média"
	default:
		return "Fraca"
	}
}
