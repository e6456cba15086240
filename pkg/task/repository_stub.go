package task

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu            sync.RWMutex
	tasks         map[int]Task // id -> task
	nextTaskId    int
	nextSubtaskId int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		tasks:         make(map[int]Task),
		nextTaskId:    1,
		nextSubtaskId: 1,
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(r)
}

func (r *RepositoryStub) CreateTask(ctx context.Context, task Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task.Id = r.nextTaskId
	r.nextTaskId++
	task.Subtasks = r.assignSubtaskIds(task.Id, task.Subtasks)
	r.tasks[task.Id] = task

	return task, nil
}

func (r *RepositoryStub) GetTask(ctx context.Context, userId int, id int) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists || task.UserId != userId {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (r *RepositoryStub) ListTasks(ctx context.Context, userId int) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Task
	for _, task := range r.tasks {
		if task.UserId == userId {
			result = append(result, task)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) UpdateTask(ctx context.Context, userId int, task Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.tasks[task.Id]
	if !exists || existing.UserId != userId {
		return Task{}, ErrTaskNotFound
	}

	task.UserId = userId
	task.Subtasks = r.assignSubtaskIds(task.Id, task.Subtasks)
	r.tasks[task.Id] = task
	return task, nil
}

func (r *RepositoryStub) DeleteTask(ctx context.Context, userId int, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, exists := r.tasks[id]
	if !exists || task.UserId != userId {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *RepositoryStub) GetSubtask(ctx context.Context, userId int, subtaskId int) (Subtask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, task := range r.tasks {
		if task.UserId != userId {
			continue
		}
		for _, subtask := range task.Subtasks {
			if subtask.Id == subtaskId {
				return subtask, nil
			}
		}
	}
	return Subtask{}, ErrSubtaskNotFound
}

func (r *RepositoryStub) assignSubtaskIds(taskId int, subtasks []Subtask) []Subtask {
	result := make([]Subtask, 0, len(subtasks))
	for _, subtask := range subtasks {
		subtask.TaskId = taskId
		if subtask.Id == 0 {
			subtask.Id = r.nextSubtaskId
			r.nextSubtaskId++
		}
		result = append(result, subtask)
	}
	return result
}

// Helper method to reset the stub (useful between tests)
func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[int]Task)
	r.nextTaskId = 1
	r.nextSubtaskId = 1
}
