package worklog

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/internal/utils"
	"github.com/heyho99/task-management-app/pkg/planner"
	"github.com/heyho99/task-management-app/pkg/task"
	"github.com/heyho99/task-management-app/pkg/user"
)

var ErrFutureDate = errors.New("cannot record work for a future date")
var ErrInvalidWork = errors.New("work must be between 0 and 100")

type Service interface {
	RecordWork(ctx context.Context, record WorkRecord) (WorkRecord, error)
	UpdateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error)
	DeleteRecord(ctx context.Context, id int) (bool, error)
	RecordsForSubtask(ctx context.Context, subtaskId int) ([]WorkRecord, error)
	RecordsForTask(ctx context.Context, taskId int) ([]WorkRecord, error)

	// SubtaskProgress and TotalWorkTime feed derived task progress.
	SubtaskProgress(ctx context.Context, subtaskId int) (int, error)
	TotalWorkTime(ctx context.Context, taskId int) (int, error)
}

type ServiceImpl struct {
	repo     Repository
	taskRepo task.Repository
	clock    utils.Clock
	eventBus *event_bus.EventBus
}

func NewWorklogService(repo Repository, taskRepo task.Repository, clock utils.Clock, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, taskRepo: taskRepo, clock: clock, eventBus: eventBus}
}

func (s *ServiceImpl) RecordWork(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	subtask, err := s.authorizeSubtask(ctx, record.SubtaskId)
	if err != nil {
		return WorkRecord{}, err
	}
	if err := s.validateRecord(record); err != nil {
		return WorkRecord{}, err
	}

	record.Date = planner.DateOnly(record.Date)
	created, err := s.repo.CreateRecord(ctx, record)
	if err != nil {
		return WorkRecord{}, err
	}

	s.publishWorkRecorded(ctx, subtask.TaskId, created)
	return created, nil
}

func (s *ServiceImpl) UpdateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	existing, err := s.repo.GetRecord(ctx, record.Id)
	if err != nil {
		return WorkRecord{}, err
	}
	subtask, err := s.authorizeSubtask(ctx, existing.SubtaskId)
	if err != nil {
		return WorkRecord{}, err
	}
	// An absent date keeps the record on its current day; a new one moves it.
	if record.Date.IsZero() {
		record.Date = existing.Date
	}
	if err := s.validateRecord(record); err != nil {
		return WorkRecord{}, err
	}
	record.Date = planner.DateOnly(record.Date)

	updated, err := s.repo.UpdateRecord(ctx, record)
	if err != nil {
		return WorkRecord{}, err
	}

	s.publishWorkRecorded(ctx, subtask.TaskId, updated)
	return updated, nil
}

func (s *ServiceImpl) DeleteRecord(ctx context.Context, id int) (bool, error) {
	existing, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	subtask, err := s.authorizeSubtask(ctx, existing.SubtaskId)
	if err != nil {
		return false, err
	}

	deleted, err := s.repo.DeleteRecord(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.publishWorkRecorded(ctx, subtask.TaskId, existing)
	}
	return deleted, nil
}

func (s *ServiceImpl) RecordsForSubtask(ctx context.Context, subtaskId int) ([]WorkRecord, error) {
	if _, err := s.authorizeSubtask(ctx, subtaskId); err != nil {
		return nil, err
	}
	return s.repo.ListBySubtask(ctx, subtaskId)
}

func (s *ServiceImpl) RecordsForTask(ctx context.Context, taskId int) ([]WorkRecord, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if _, err := s.taskRepo.GetTask(ctx, userId, taskId); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskId)
}

// SubtaskProgress is the accumulated work of a subtask capped at 100 percent.
func (s *ServiceImpl) SubtaskProgress(ctx context.Context, subtaskId int) (int, error) {
	total, err := s.repo.SumWorkBySubtask(ctx, subtaskId)
	if err != nil {
		return 0, err
	}
	if total > 100 {
		return 100, nil
	}
	return total, nil
}

func (s *ServiceImpl) TotalWorkTime(ctx context.Context, taskId int) (int, error) {
	return s.repo.SumWorkTimeByTask(ctx, taskId)
}

func (s *ServiceImpl) authorizeSubtask(ctx context.Context, subtaskId int) (task.Subtask, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return task.Subtask{}, fmt.Errorf("failed to get current user: %w", err)
	}
	subtask, err := s.taskRepo.GetSubtask(ctx, userId, subtaskId)
	if err != nil {
		return task.Subtask{}, err
	}
	return subtask, nil
}

func (s *ServiceImpl) validateRecord(record WorkRecord) error {
	if record.Work < 0 || record.Work > 100 {
		return ErrInvalidWork
	}
	if planner.DateOnly(record.Date).After(utils.Today(s.clock)) {
		return ErrFutureDate
	}
	return nil
}

func (s *ServiceImpl) publishWorkRecorded(ctx context.Context, taskId int, record WorkRecord) {
	err := s.eventBus.Publish(event_bus.NewEvent(ctx, "worklog.recorded", event_bus.WorkRecorded{
		TaskId:    taskId,
		SubtaskId: record.SubtaskId,
		Date:      record.Date,
		Work:      record.Work,
		WorkTime:  record.WorkTime,
	}))
	if err != nil {
		log.Errorf("failed to publish work recorded event: %v", err)
	}
}
