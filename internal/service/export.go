package service

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
)

// utf8BOM makes spreadsheet tools pick UTF-8 for the accented headers.
const utf8BOM = "\uFEFF"

var exportHeader = []string{"Data", "Dia da Semana", "Hora de Deitar", "Hora de Acordar", "Horas Dormidas", "Qualidade"}

// ExportFilename names the export after the clock's local date.
func ExportFilename(clock sleepcalc.Clock) string {
	return "sono_" + sleepcalc.TodayLocalDate(clock) + ".csv"
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64) + "h"
}

// ExportCSV writes records, in the order given, as semicolon-separated CSV
// followed by a statistics block.
func ExportCSV(w io.Writer, records []internal.SleepRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	rows := make([][]string, 0, len(records)+7)
	rows = append(rows, exportHeader)
	for _, r := range records {
		rows = append(rows, []string{
			sleepcalc.FormatForDisplay(r.Date),
			sleepcalc.WeekdayName(r.Date, true),
			r.BedTime,
			r.WakeTime,
			formatHours(r.Hours),
			QualityLabel(r.Hours),
		})
	}

	stats := CalculateSleepStats(records)
	rows = append(rows,
		[]string{},
		[]string{"ESTATÍSTICAS"},
		[]string{"Média de Sono", "", "", "", stats.Average + "h"},
		[]string{"Melhor Noite", "", "", "", stats.Best + "h"},
		[]string{"Pior Noite", "", "", "", stats.Worst + "h"},
		[]string{"Total de Registos", "", "", "", strconv.Itoa(stats.Total)},
	)
	return cw.WriteAll(rows)
}
