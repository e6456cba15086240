package task

import (
	"time"

	"github.com/heyho99/task-management-app/pkg/planner"
)

// Task is a unit of planned work: a date range, a target time in minutes,
// the subtasks the work is split into, and the daily allocation of progress
// and time produced by the planner.
type Task struct {
	Id         int
	UserId     int
	Name       string
	Content    string
	Category   string
	Comment    string
	StartDate  time.Time
	DueDate    time.Time
	TargetTime int // minutes

	Subtasks  []Subtask
	TaskPlans []planner.DailyPlanEntry
	TimePlans []planner.DailyPlanEntry

	// Progress is derived from work records at read time, never stored.
	Progress float64
}

// Subtask carries a share of the task's progress. Contribution values across
// a task's subtasks sum to 100 within the planner's tolerance.
type Subtask struct {
	Id           int
	TaskId       int
	Name         string
	Contribution float64
}
