package worklog

import (
	"time"
)

// WorkRecord is one day of work on a subtask. Work is the share of the
// subtask completed that day in percent; WorkTime is the time spent in
// minutes. A subtask can have at most one record per calendar date.
type WorkRecord struct {
	Id        int
	SubtaskId int
	Date      time.Time
	Work      int
	WorkTime  int
}
