package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

const (
	GoalDuration    = "duration"
	GoalConsistency = "consistency"

	goalWindowDays = 7
	noon           = 12 * 60
)

type GoalRequest struct {
	Type  string `json:"type" validate:"required,oneof=duration consistency"`
	Value string `json:"value" validate:"required"`
}

type DayProgress struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Met   bool    `json:"met"`
}

type GoalProgress struct {
	Goal      *internal.Goal `json:"goal"`
	Progress  []DayProgress  `json:"progress"`
	MetDays   int            `json:"met_days"`
	TotalDays int            `json:"total_days"`
}

func ValidateGoalRequest(req *GoalRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	switch req.Type {
	case GoalDuration:
		_, err := parseDurationGoal(req.Value)
		return err
	case GoalConsistency:
		_, err := parseBedtimeGoal(req.Value)
		return err
	}
	return nil
}

// parseDurationGoal reads "7h", "7.5h" or "7" as tenths of an hour.
func parseDurationGoal(v string) (int, error) {
	s := strings.TrimSuffix(strings.TrimSpace(strings.ToLower(v)), "h")
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || h <= 0 || h > 24 {
		return 0, fmt.Errorf("duration goal %q must look like 7h or 7.5h", v)
	}
	return sleepcalc.HoursToTenths(h), nil
}

// parseBedtimeGoal reads "before 23" or "before 23:30" as minutes on the
// evening-shifted scale used by eveningMinutes.
func parseBedtimeGoal(v string) (int, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.ToLower(v)), "before"))
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		m = "00"
	}
	if len(h) == 1 {
		h = "0" + h
	}
	tod, err := sleepcalc.ParseTimeOfDay(h + ":" + m)
	if err != nil {
		return 0, fmt.Errorf("consistency goal %q must look like \"before 23\" or \"before 23:30\"", v)
	}
	return eveningMinutes(tod.Minutes()), nil
}

// eveningMinutes places times after midnight but before noon after the
// previous evening, so 00:30 sorts later than 23:00.
func eveningMinutes(m int) int {
	if m < noon {
		return m + 24*60
	}
	return m
}

func CreateGoal(ctx context.Context, goalRepo storage.GoalRepository, user *internal.User, req *GoalRequest, clock sleepcalc.Clock) (*internal.Goal, error) {
	goal := &internal.Goal{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Type:      req.Type,
		Value:     req.Value,
		CreatedAt: clock.Now(),
	}
	if err := goalRepo.SetGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// CalculateGoalProgress checks each record dated within the last seven
// local days (today included) against the goal.
func CalculateGoalProgress(goal *internal.Goal, records []internal.SleepRecord, clock sleepcalc.Clock) GoalProgress {
	now := clock.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day()-(goalWindowDays-1), 0, 0, 0, 0, now.Location()).
		Format(sleepcalc.DateLayout)

	durTarget, _ := parseDurationGoal(goal.Value)
	bedTarget, _ := parseBedtimeGoal(goal.Value)

	days := []DayProgress{}
	metCount := 0
	for _, r := range records {
		if r.Date < cutoff {
			continue
		}

		met := false
		switch goal.Type {
		case GoalDuration:
			met = sleepcalc.HoursToTenths(r.Hours) >= durTarget
		case GoalConsistency:
			if tod, err := sleepcalc.ParseTimeOfDay(r.BedTime); err == nil {
				met = eveningMinutes(tod.Minutes()) < bedTarget
			}
		}

		if met {
			metCount++
		}
		days = append(days, DayProgress{Date: r.Date, Hours: r.Hours, Met: met})
	}

	return GoalProgress{
		Goal:      goal,
		Progress:  days,
		MetDays:   metCount,
		TotalDays: len(days),
	}
}
