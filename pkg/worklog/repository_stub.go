package worklog

import (
	"context"
	"sort"
	"sync"
	"time"
)

type RepositoryStub struct {
	mu      sync.RWMutex
	records map[int]WorkRecord // id -> record
	// taskIds maps subtaskId -> taskId for task level queries
	taskIds map[int]int
	nextId  int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		records: make(map[int]WorkRecord),
		taskIds: make(map[int]int),
		nextId:  1,
	}
}

// LinkSubtask registers the subtask's parent task so ListByTask and
// SumWorkTimeByTask can resolve it.
func (r *RepositoryStub) LinkSubtask(subtaskId int, taskId int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taskIds[subtaskId] = taskId
}

func (r *RepositoryStub) CreateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.SubtaskId == record.SubtaskId && sameDate(existing.Date, record.Date) {
			return WorkRecord{}, ErrRecordAlreadyExists
		}
	}

	record.Id = r.nextId
	r.nextId++
	r.records[record.Id] = record
	return record, nil
}

func (r *RepositoryStub) UpdateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.records[record.Id]
	if !exists {
		return WorkRecord{}, ErrRecordNotFound
	}
	for _, other := range r.records {
		if other.Id != record.Id && other.SubtaskId == existing.SubtaskId && sameDate(other.Date, record.Date) {
			return WorkRecord{}, ErrRecordAlreadyExists
		}
	}
	existing.Date = record.Date
	existing.Work = record.Work
	existing.WorkTime = record.WorkTime
	r.records[record.Id] = existing
	return existing, nil
}

func (r *RepositoryStub) DeleteRecord(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[id]; !exists {
		return false, nil
	}
	delete(r.records, id)
	return true, nil
}

func (r *RepositoryStub) GetRecord(ctx context.Context, id int) (WorkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return WorkRecord{}, ErrRecordNotFound
	}
	return record, nil
}

func (r *RepositoryStub) ListBySubtask(ctx context.Context, subtaskId int) ([]WorkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []WorkRecord
	for _, record := range r.records {
		if record.SubtaskId == subtaskId {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *RepositoryStub) ListByTask(ctx context.Context, taskId int) ([]WorkRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []WorkRecord
	for _, record := range r.records {
		if r.taskIds[record.SubtaskId] == taskId {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (r *RepositoryStub) SumWorkBySubtask(ctx context.Context, subtaskId int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, record := range r.records {
		if record.SubtaskId == subtaskId {
			total += record.Work
		}
	}
	return total, nil
}

func (r *RepositoryStub) SumWorkTimeByTask(ctx context.Context, taskId int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, record := range r.records {
		if r.taskIds[record.SubtaskId] == taskId {
			total += record.WorkTime
		}
	}
	return total, nil
}

func sameDate(a time.Time, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
