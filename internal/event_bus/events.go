package event_bus

import "time"

// TaskUpdated is published after a task (including its subtasks or daily
// plans) has been created, updated, or deleted.
type TaskUpdated struct {
	TaskId     int
	Name       string
	StartDate  time.Time
	DueDate    time.Time
	TargetTime int
}

// WorkRecorded is published after a work record has been created, updated,
// or deleted for a subtask.
type WorkRecorded struct {
	TaskId    int
	SubtaskId int
	Date      time.Time
	Work      int
	WorkTime  int
}
