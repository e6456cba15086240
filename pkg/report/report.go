package report

import (
	"time"
)

// DayReport compares one day of the plan with the work actually recorded.
type DayReport struct {
	Date              time.Time
	PlannedTask       float64
	PlannedTime       float64
	ActualWork        int
	ActualTime        int
	CumulativePlanned float64
	CumulativeActual  int
}

// TaskReport is the full plan versus actuals view of a single task. Days
// covers the planned date range only; records dated outside it still count
// towards Progress and TotalWorkTime but have no day row, so the cumulative
// columns track planned days, not every record.
type TaskReport struct {
	TaskId        int
	TaskName      string
	StartDate     time.Time
	DueDate       time.Time
	TargetTime    int
	Progress      float64
	TotalWorkTime int
	Days          []DayReport
}
