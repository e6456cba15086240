package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/pkg/planner"
	"github.com/heyho99/task-management-app/pkg/task"
	"github.com/heyho99/task-management-app/pkg/user"
	"github.com/heyho99/task-management-app/pkg/worklog"
)

type Service interface {
	TaskReport(ctx context.Context, taskId int) (TaskReport, error)
}

type cacheKey struct {
	userId int
	taskId int
}

// ServiceImpl builds task reports and caches them until the task or its
// work records change.
type ServiceImpl struct {
	tasks   task.Service
	worklog worklog.Service

	mu    sync.RWMutex
	cache map[cacheKey]TaskReport
}

func NewReportService(tasks task.Service, worklogService worklog.Service, eventBus *event_bus.EventBus) *ServiceImpl {
	s := &ServiceImpl{
		tasks:   tasks,
		worklog: worklogService,
		cache:   make(map[cacheKey]TaskReport),
	}

	event_bus.SubscribeTyped(eventBus, "task.updated", func(e event_bus.EventT[event_bus.TaskUpdated]) error {
		s.invalidate(e.Data.TaskId)
		return nil
	})
	event_bus.SubscribeTyped(eventBus, "worklog.recorded", func(e event_bus.EventT[event_bus.WorkRecorded]) error {
		s.invalidate(e.Data.TaskId)
		return nil
	})

	return s
}

func (s *ServiceImpl) TaskReport(ctx context.Context, taskId int) (TaskReport, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return TaskReport{}, fmt.Errorf("failed to get current user: %w", err)
	}

	key := cacheKey{userId: userId, taskId: taskId}
	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		log.Tracef("serving cached report for task %d", taskId)
		return cached, nil
	}

	report, err := s.buildReport(ctx, taskId)
	if err != nil {
		return TaskReport{}, err
	}

	s.mu.Lock()
	s.cache[key] = report
	s.mu.Unlock()
	return report, nil
}

func (s *ServiceImpl) buildReport(ctx context.Context, taskId int) (TaskReport, error) {
	t, err := s.tasks.GetTask(ctx, taskId)
	if err != nil {
		return TaskReport{}, err
	}
	records, err := s.worklog.RecordsForTask(ctx, taskId)
	if err != nil {
		return TaskReport{}, err
	}
	totalWorkTime, err := s.worklog.TotalWorkTime(ctx, taskId)
	if err != nil {
		return TaskReport{}, err
	}

	workByDate := make(map[time.Time]int)
	timeByDate := make(map[time.Time]int)
	for _, record := range records {
		d := planner.DateOnly(record.Date)
		workByDate[d] += record.Work
		timeByDate[d] += record.WorkTime
	}

	timePlanByDate := make(map[time.Time]float64, len(t.TimePlans))
	for _, entry := range t.TimePlans {
		timePlanByDate[planner.DateOnly(entry.Date)] = entry.Value
	}

	report := TaskReport{
		TaskId:        t.Id,
		TaskName:      t.Name,
		StartDate:     t.StartDate,
		DueDate:       t.DueDate,
		TargetTime:    t.TargetTime,
		Progress:      t.Progress,
		TotalWorkTime: totalWorkTime,
	}

	var cumulativePlanned float64
	var cumulativeActual int
	for _, entry := range t.TaskPlans {
		d := planner.DateOnly(entry.Date)
		cumulativePlanned += entry.Value
		cumulativeActual += workByDate[d]
		report.Days = append(report.Days, DayReport{
			Date:              d,
			PlannedTask:       planner.Round2(entry.Value),
			PlannedTime:       planner.Round2(timePlanByDate[d]),
			ActualWork:        workByDate[d],
			ActualTime:        timeByDate[d],
			CumulativePlanned: planner.Round2(cumulativePlanned),
			CumulativeActual:  cumulativeActual,
		})
	}

	return report, nil
}

func (s *ServiceImpl) invalidate(taskId int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if key.taskId == taskId {
			delete(s.cache, key)
		}
	}
}
