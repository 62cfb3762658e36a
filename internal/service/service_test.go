package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

var lisbon = time.FixedZone("WET", 0)

func fixedClock(y int, m time.Month, d, hh, mm int) sleepcalc.FixedClock {
	return sleepcalc.FixedClock{T: time.Date(y, m, d, hh, mm, 0, 0, lisbon)}
}

func newTestSleepService(t *testing.T, clock sleepcalc.Clock, pub notify.Publisher) (*SleepService, *storage.SQLiteStorage) {
	t.Helper()
	repo, err := storage.NewSQLiteStorage(":memory:", internal.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewSleepService(repo, pub, clock, internal.NopLogger()), repo
}

func TestValidateSleepRecordRequest(t *testing.T) {
	assert.NoError(t, ValidateSleepRecordRequest(&SleepRecordRequest{BedTime: "23:30", WakeTime: "07:00"}))

	bad := []SleepRecordRequest{
		{BedTime: "", WakeTime: "07:00"},
		{BedTime: "23:30"},
		{BedTime: "25:00", WakeTime: "07:00"},
		{BedTime: "23:30", WakeTime: "7:00"},
		{BedTime: "late", WakeTime: "early"},
	}
	for _, req := range bad {
		assert.Error(t, ValidateSleepRecordRequest(&req), "%+v", req)
	}
}

func TestSleepService_CreateUsesLocalDateAndRollover(t *testing.T) {
	hub := notify.NewHub()
	clock := fixedClock(2024, 3, 5, 7, 10)
	svc, _ := newTestSleepService(t, clock, hub)
	user := &internal.User{ID: "u1"}

	events, cancel := hub.Subscribe("u1")
	defer cancel()

	rec, err := svc.Create(context.Background(), user, &SleepRecordRequest{BedTime: "22:00", WakeTime: "06:15"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", rec.Date)
	assert.Equal(t, 8.3, rec.Hours)
	assert.Equal(t, "u1", rec.UserID)
	assert.NotEmpty(t, rec.ID)

	ev := <-events
	assert.Equal(t, notify.EventInsert, ev.Type)
	assert.Equal(t, rec.ID, ev.RecordID)
	require.NotNil(t, ev.Record)
	assert.Equal(t, "22:00", ev.Record.BedTime)

	_, err = svc.Create(context.Background(), user, &SleepRecordRequest{BedTime: "nope", WakeTime: "06:15"})
	assert.Error(t, err)
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, notify.Event) error { return errors.New("offline") }

func TestSleepService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, repo := newTestSleepService(t, fixedClock(2024, 3, 5, 7, 0), failingPublisher{})
	_, err := svc.Create(context.Background(), &internal.User{ID: "u1"}, &SleepRecordRequest{BedTime: "23:00", WakeTime: "07:00"})
	require.NoError(t, err)

	recs, err := repo.ListRecords(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSleepService_DeletePublishes(t *testing.T) {
	hub := notify.NewHub()
	svc, _ := newTestSleepService(t, fixedClock(2024, 3, 5, 7, 0), hub)
	ctx := context.Background()
	rec, err := svc.Create(ctx, &internal.User{ID: "u1"}, &SleepRecordRequest{BedTime: "23:00", WakeTime: "07:00"})
	require.NoError(t, err)

	events, cancel := hub.Subscribe("u1")
	defer cancel()

	assert.ErrorIs(t, svc.Delete(ctx, "u2", rec.ID), internal.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", rec.ID))

	ev := <-events
	assert.Equal(t, notify.EventDelete, ev.Type)
	assert.Equal(t, rec.ID, ev.RecordID)

	recs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func records(hours ...float64) []internal.SleepRecord {
	out := make([]internal.SleepRecord, len(hours))
	for i, h := range hours {
		out[i] = internal.SleepRecord{ID: string(rune('a' + i)), Date: "2024-03-05", BedTime: "23:00", WakeTime: "07:00", Hours: h}
	}
	return out
}

func TestCalculateSleepStats(t *testing.T) {
	stats := CalculateSleepStats(records(7.5, 6.0, 8.3))
	assert.Equal(t, SleepStats{Average: "7.3", Best: "8.3", Worst: "6.0", Total: 3}, stats)

	// 7.0 and 7.5 average to exactly 7.25
	assert.Equal(t, "7.3", CalculateSleepStats(records(7.0, 7.5)).Average)

	assert.Equal(t, SleepStats{Average: "0.0", Best: "0.0", Worst: "0.0"}, CalculateSleepStats(nil))
}

func TestChartSeries(t *testing.T) {
	var recs []internal.SleepRecord
	start := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		// newest first, one per day going back
		recs = append(recs, internal.SleepRecord{
			Date:  start.AddDate(0, 0, -i).Format(sleepcalc.DateLayout),
			Hours: float64(i),
		})
	}

	points := ChartSeries(recs)
	require.Len(t, points, ChartWindow)
	assert.Equal(t, "07/03", points[0].Label)
	assert.Equal(t, 13.0, points[0].Hours)
	assert.Equal(t, "20/03", points[len(points)-1].Label)
	assert.Equal(t, "Qua", points[len(points)-1].Weekday)

	assert.Empty(t, ChartSeries(nil))
	assert.Len(t, ChartSeries(recs[:3]), 3)
}

func TestQualityLabel(t *testing.T) {
	assert.Equal(t, "Boa", QualityLabel(7))
	assert.Equal(t, "Boa", QualityLabel(9.1))
	assert.Equal(t, "Média", QualityLabel(6))
	assert.Equal(t, "Média", QualityLabel(6.9))
	assert.Equal(t, "Fraca", QualityLabel(5.9))
}

func TestExportCSV(t *testing.T) {
	recs := []internal.SleepRecord{
		{Date: "2024-03-05", BedTime: "23:30", WakeTime: "07:00", Hours: 7.5},
		{Date: "2024-03-03", BedTime: "01:00", WakeTime: "06:00", Hours: 5},
	}
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, recs))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF"))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\uFEFF"), "\n"), "\n")
	assert.Equal(t, []string{
		"Data;Dia da Semana;Hora de Deitar;Hora de Acordar;Horas Dormidas;Qualidade",
		"05/03/2024;Terça;23:30;07:00;7.5h;Boa",
		"03/03/2024;Domingo;01:00;06:00;5h;Fraca",
		"",
		"ESTATÍSTICAS",
		"Média de Sono;;;;6.3h",
		"Melhor Noite;;;;7.5h",
		"Pior Noite;;;;5.0h",
		"Total de Registos;;;;2",
	}, lines)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "sono_2024-03-05.csv", ExportFilename(fixedClock(2024, 3, 5, 23, 59)))
}

func TestValidateGoalRequest(t *testing.T) {
	assert.NoError(t, ValidateGoalRequest(&GoalRequest{Type: "duration", Value: "7h"}))
	assert.NoError(t, ValidateGoalRequest(&GoalRequest{Type: "duration", Value: "7.5h"}))
	assert.NoError(t, ValidateGoalRequest(&GoalRequest{Type: "consistency", Value: "before 23"}))
	assert.NoError(t, ValidateGoalRequest(&GoalRequest{Type: "consistency", Value: "before 0:30"}))

	assert.Error(t, ValidateGoalRequest(&GoalRequest{Type: "duration"}))
	assert.Error(t, ValidateGoalRequest(&GoalRequest{Type: "banana", Value: "7h"}))
	assert.Error(t, ValidateGoalRequest(&GoalRequest{Type: "duration", Value: "lots"}))
	assert.Error(t, ValidateGoalRequest(&GoalRequest{Type: "consistency", Value: "before 25"}))
}

func TestCalculateGoalProgress_Duration(t *testing.T) {
	clock := fixedClock(2024, 3, 10, 8, 0)
	goal := &internal.Goal{Type: GoalDuration, Value: "7.5h"}
	recs := []internal.SleepRecord{
		{Date: "2024-03-10", Hours: 8},
		{Date: "2024-03-09", Hours: 7.4},
		{Date: "2024-03-04", Hours: 7.5},
		{Date: "2024-03-03", Hours: 9}, // outside the window
	}
	p := CalculateGoalProgress(goal, recs, clock)
	assert.Equal(t, 3, p.TotalDays)
	assert.Equal(t, 2, p.MetDays)
	assert.Equal(t, []bool{true, false, true}, []bool{p.Progress[0].Met, p.Progress[1].Met, p.Progress[2].Met})
}

func TestCalculateGoalProgress_Consistency(t *testing.T) {
	clock := fixedClock(2024, 3, 10, 8, 0)
	goal := &internal.Goal{Type: GoalConsistency, Value: "before 23"}
	recs := []internal.SleepRecord{
		{Date: "2024-03-10", BedTime: "22:30"},
		{Date: "2024-03-09", BedTime: "00:30"},
		{Date: "2024-03-08", BedTime: "23:00"},
	}
	p := CalculateGoalProgress(goal, recs, clock)
	assert.Equal(t, 1, p.MetDays)
	assert.Equal(t, 3, p.TotalDays)
	assert.True(t, p.Progress[0].Met)
}

func TestCreateGoal(t *testing.T) {
	repo, err := storage.NewSQLiteStorage(":memory:", internal.NopLogger())
	require.NoError(t, err)
	defer repo.Close()

	clock := fixedClock(2024, 3, 10, 8, 0)
	goal, err := CreateGoal(context.Background(), repo, &internal.User{ID: "u1"}, &GoalRequest{Type: "duration", Value: "8h"}, clock)
	require.NoError(t, err)
	assert.True(t, goal.CreatedAt.Equal(clock.T))

	got, err := repo.GetGoal(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, goal.ID, got.ID)
}
