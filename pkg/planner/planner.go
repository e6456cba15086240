package planner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDateRange = errors.New("due date is before start date")
var ErrNegativeTargetTime = errors.New("target time must not be negative")

// Epsilon is the tolerance applied when checking that a collection of plan or
// contribution values sums to its target. Values are edited as 2-decimal
// figures in the UI, so small drift is expected and accepted.
const Epsilon = 0.1

// DailyPlanEntry is one calendar day of a plan. Value is either a share of
// the task progress (task plan, sums to 100) or a share of the target time
// (time plan, sums to the target time), at full float precision.
type DailyPlanEntry struct {
	Date  time.Time
	Value float64
}

// DailyPlans holds the two parallel sequences produced for a date range.
type DailyPlans struct {
	TaskPlans []DailyPlanEntry
	TimePlans []DailyPlanEntry
}

// SubtaskContribution is one row of the contribution collection held during a
// task editing session. Id is 0 for rows that have not been persisted yet.
type SubtaskContribution struct {
	Id           int
	Name         string
	Contribution float64
}

// GenerateDailyPlans expands the inclusive [start, due] date range into one
// entry per calendar day for both quantities: 100 task-progress points and
// targetTime, each split evenly across the days. It is pure and is re-invoked
// from scratch whenever start, due, or the target time change.
func GenerateDailyPlans(start, due time.Time, targetTime float64) (DailyPlans, error) {
	if targetTime < 0 {
		return DailyPlans{}, ErrNegativeTargetTime
	}

	startDay := DateOnly(start)
	dueDay := DateOnly(due)
	if dueDay.Before(startDay) {
		return DailyPlans{}, fmt.Errorf("%w: start %s, due %s", ErrInvalidDateRange,
			startDay.Format(time.DateOnly), dueDay.Format(time.DateOnly))
	}

	dayCount := int(dueDay.Sub(startDay).Hours()/24) + 1
	taskValue := 100.0 / float64(dayCount)
	timeValue := targetTime / float64(dayCount)

	plans := DailyPlans{
		TaskPlans: make([]DailyPlanEntry, 0, dayCount),
		TimePlans: make([]DailyPlanEntry, 0, dayCount),
	}
	for day := startDay; !day.After(dueDay); day = day.AddDate(0, 0, 1) {
		plans.TaskPlans = append(plans.TaskPlans, DailyPlanEntry{Date: day, Value: taskValue})
		plans.TimePlans = append(plans.TimePlans, DailyPlanEntry{Date: day, Value: timeValue})
	}
	return plans, nil
}

// SumsToTarget reports whether the values sum to the target within Epsilon.
// It is used for task plans against 100, time plans against the target time,
// and subtask contributions against 100.
func SumsToTarget(values []float64, target float64) bool {
	var total float64
	for _, v := range values {
		total += v
	}
	return math.Abs(total-target) < Epsilon
}

// PlanValues extracts the value column of a plan sequence, for validation.
func PlanValues(entries []DailyPlanEntry) []float64 {
	values := make([]float64, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Value)
	}
	return values
}

// Round2 rounds to 2 decimal places, the precision used for display and
// transport. Validation always runs on unrounded values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// DateOnly truncates a time to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeSubtaskID maps the loosely-typed subtask identifiers that browser
// clients send ("", "null", "undefined", or a number) to an int id, where 0
// means "create new". Anything unparseable is treated as not persisted.
func NormalizeSubtaskID(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "undefined" {
		return 0
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
