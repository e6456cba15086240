package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/pkg/planner"
	"github.com/heyho99/task-management-app/pkg/user"
	log "github.com/sirupsen/logrus"
)

var ErrTaskNotFound = errors.New("task not found")
var ErrSubtaskNotFound = errors.New("subtask not found")
var ErrPlanOutOfTolerance = errors.New("plan values out of tolerance")

// WorkProgressReader reports accumulated work per subtask and per task.
// Implemented by the worklog package.
type WorkProgressReader interface {
	SubtaskProgress(ctx context.Context, subtaskId int) (int, error)
	TotalWorkTime(ctx context.Context, taskId int) (int, error)
}

type Service interface {
	CreateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id int) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	DeleteTask(ctx context.Context, id int) (bool, error)
}

type ServiceImpl struct {
	repo     Repository
	work     WorkProgressReader
	eventBus *event_bus.EventBus
}

func NewTaskService(repo Repository, work WorkProgressReader, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, work: work, eventBus: eventBus}
}

func (s *ServiceImpl) CreateTask(ctx context.Context, task Task) (Task, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := validateAllocations(task); err != nil {
		return Task{}, err
	}

	task.UserId = userId
	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return Task{}, err
	}

	s.publishTaskUpdated(ctx, created)
	return created, nil
}

func (s *ServiceImpl) GetTask(ctx context.Context, id int) (Task, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get current user: %w", err)
	}

	task, err := s.repo.GetTask(ctx, userId, id)
	if err != nil {
		return Task{}, err
	}
	if err := s.attachProgress(ctx, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (s *ServiceImpl) ListTasks(ctx context.Context) ([]Task, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	tasks, err := s.repo.ListTasks(ctx, userId)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if err := s.attachProgress(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (s *ServiceImpl) UpdateTask(ctx context.Context, task Task) (Task, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return Task{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if err := validateAllocations(task); err != nil {
		return Task{}, err
	}

	updated, err := s.repo.UpdateTask(ctx, userId, task)
	if err != nil {
		return Task{}, err
	}

	s.publishTaskUpdated(ctx, updated)
	return updated, nil
}

func (s *ServiceImpl) DeleteTask(ctx context.Context, id int) (bool, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.DeleteTask(ctx, userId, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		log.Warnf("task not deleted, probably because it does not exist (%d) or the user (%d) is not the owner", id, userId)
		return false, nil
	}

	s.publishTaskUpdated(ctx, Task{Id: id})
	return true, nil
}

// validateAllocations is the submission gate: subtask contributions must sum
// to 100, daily task plans to 100, and daily time plans to the target time,
// each within the planner's tolerance. Collections that have not been filled
// in yet are skipped rather than rejected.
func validateAllocations(task Task) error {
	if len(task.Subtasks) > 0 {
		values := make([]float64, 0, len(task.Subtasks))
		var total float64
		for _, sub := range task.Subtasks {
			values = append(values, sub.Contribution)
			total += sub.Contribution
		}
		if !planner.SumsToTarget(values, 100) {
			return fmt.Errorf("%w: subtask contributions sum to %.2f, want 100", ErrPlanOutOfTolerance, total)
		}
	}

	if len(task.TaskPlans) > 0 {
		values := planner.PlanValues(task.TaskPlans)
		if !planner.SumsToTarget(values, 100) {
			return fmt.Errorf("%w: daily task plans sum to %.2f, want 100", ErrPlanOutOfTolerance, sum(values))
		}
	}

	if len(task.TimePlans) > 0 {
		values := planner.PlanValues(task.TimePlans)
		target := float64(task.TargetTime)
		if !planner.SumsToTarget(values, target) {
			return fmt.Errorf("%w: daily time plans sum to %.2f, want %.2f", ErrPlanOutOfTolerance, sum(values), target)
		}
	}

	return nil
}

// attachProgress derives the task's progress from its subtasks' accumulated
// work, weighted by contribution.
func (s *ServiceImpl) attachProgress(ctx context.Context, task *Task) error {
	if s.work == nil || len(task.Subtasks) == 0 {
		return nil
	}

	var progress float64
	for _, sub := range task.Subtasks {
		work, err := s.work.SubtaskProgress(ctx, sub.Id)
		if err != nil {
			return fmt.Errorf("failed to get progress for subtask %d: %w", sub.Id, err)
		}
		progress += sub.Contribution * float64(work) / 100
	}
	task.Progress = planner.Round2(progress)
	return nil
}

func (s *ServiceImpl) publishTaskUpdated(ctx context.Context, task Task) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, "task.updated", event_bus.TaskUpdated{
		TaskId:     task.Id,
		Name:       task.Name,
		StartDate:  task.StartDate,
		DueDate:    task.DueDate,
		TargetTime: task.TargetTime,
	}))
	if err != nil {
		// Subscribers only maintain derived state; the task itself is
		// already persisted, so log and move on.
		log.Errorf("failed to publish task update event: %v", err)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
