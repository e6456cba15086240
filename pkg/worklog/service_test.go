package worklog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/internal/utils"
	"github.com/heyho99/task-management-app/pkg/task"
	"github.com/heyho99/task-management-app/pkg/user"
)

func userContext(userId int) context.Context {
	return user.WithUser(context.Background(), user.User{Id: userId})
}

func date(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixture wires a worklog service against stubs with one task owned by user 1
// that has a single subtask.
type fixture struct {
	service   *ServiceImpl
	repo      *RepositoryStub
	eventBus  *event_bus.EventBus
	clock     *utils.MockClock
	taskId    int
	subtaskId int
}

func setup(t *testing.T) *fixture {
	t.Helper()

	taskRepo := task.NewRepositoryStub()
	created, err := taskRepo.CreateTask(context.Background(), task.Task{
		UserId:     1,
		Name:       "Write thesis chapter",
		StartDate:  date("2026-03-01"),
		DueDate:    date("2026-03-04"),
		TargetTime: 120,
		Subtasks:   []task.Subtask{{Name: "Draft", Contribution: 100}},
	})
	require.NoError(t, err)

	repo := NewRepositoryStub()
	repo.LinkSubtask(created.Subtasks[0].Id, created.Id)
	clock := &utils.MockClock{FixedNow: date("2026-03-02").Add(15 * time.Hour)}
	eventBus := event_bus.NewEventBus()

	return &fixture{
		service:   NewWorklogService(repo, taskRepo, clock, eventBus),
		repo:      repo,
		eventBus:  eventBus,
		clock:     clock,
		taskId:    created.Id,
		subtaskId: created.Subtasks[0].Id,
	}
}

func TestRecordWork(t *testing.T) {
	t.Run("should record work for own subtask", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		created, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId,
			Date:      date("2026-03-01"),
			Work:      30,
			WorkTime:  45,
		})

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, 30, created.Work)
	})

	t.Run("should reject a second record for the same date", func(t *testing.T) {
		// given
		f := setup(t)
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30,
		})
		require.NoError(t, err)

		// when
		_, err = f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 10,
		})

		// then
		assert.ErrorIs(t, err, ErrRecordAlreadyExists)
	})

	t.Run("should allow recording on the current day", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-02"), Work: 10,
		})

		// then
		assert.NoError(t, err)
	})

	t.Run("should reject a future date", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-03"), Work: 10,
		})

		// then
		assert.ErrorIs(t, err, ErrFutureDate)
	})

	t.Run("should reject work outside 0-100", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 120,
		})

		// then
		assert.ErrorIs(t, err, ErrInvalidWork)
	})

	t.Run("should reject another user's subtask", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.RecordWork(userContext(2), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 10,
		})

		// then
		assert.ErrorIs(t, err, task.ErrSubtaskNotFound)
	})

	t.Run("should publish work recorded event", func(t *testing.T) {
		// given
		f := setup(t)
		var published []event_bus.WorkRecorded
		event_bus.SubscribeTyped(f.eventBus, "worklog.recorded", func(e event_bus.EventT[event_bus.WorkRecorded]) error {
			published = append(published, e.Data)
			return nil
		})

		// when
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})

		// then
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, f.taskId, published[0].TaskId)
		assert.Equal(t, f.subtaskId, published[0].SubtaskId)
	})
}

func TestSubtaskProgress(t *testing.T) {
	t.Run("should sum work across records", func(t *testing.T) {
		// given
		f := setup(t)
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30,
		})
		require.NoError(t, err)
		_, err = f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-02"), Work: 20,
		})
		require.NoError(t, err)

		// when
		progress, err := f.service.SubtaskProgress(context.Background(), f.subtaskId)

		// then
		require.NoError(t, err)
		assert.Equal(t, 50, progress)
	})

	t.Run("should cap progress at 100", func(t *testing.T) {
		// given
		f := setup(t)
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 80,
		})
		require.NoError(t, err)
		_, err = f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-02"), Work: 80,
		})
		require.NoError(t, err)

		// when
		progress, err := f.service.SubtaskProgress(context.Background(), f.subtaskId)

		// then
		require.NoError(t, err)
		assert.Equal(t, 100, progress)
	})
}

func TestUpdateRecord(t *testing.T) {
	t.Run("should update work and work time", func(t *testing.T) {
		// given
		f := setup(t)
		created, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})
		require.NoError(t, err)

		// when
		updated, err := f.service.UpdateRecord(userContext(1), WorkRecord{
			Id: created.Id, Work: 50, WorkTime: 60,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, 50, updated.Work)
		assert.Equal(t, 60, updated.WorkTime)
		assert.Equal(t, date("2026-03-01"), updated.Date)
	})

	t.Run("should move record to another date", func(t *testing.T) {
		// given
		f := setup(t)
		created, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})
		require.NoError(t, err)

		// when
		updated, err := f.service.UpdateRecord(userContext(1), WorkRecord{
			Id: created.Id, Date: date("2026-03-02"), Work: 30, WorkTime: 45,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, date("2026-03-02"), updated.Date)
	})

	t.Run("should reject move onto a date that already has a record", func(t *testing.T) {
		// given
		f := setup(t)
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})
		require.NoError(t, err)
		second, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-02"), Work: 20, WorkTime: 30,
		})
		require.NoError(t, err)

		// when
		_, err = f.service.UpdateRecord(userContext(1), WorkRecord{
			Id: second.Id, Date: date("2026-03-01"), Work: 20, WorkTime: 30,
		})

		// then
		assert.ErrorIs(t, err, ErrRecordAlreadyExists)
	})

	t.Run("should reject move to a future date", func(t *testing.T) {
		// given
		f := setup(t)
		created, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})
		require.NoError(t, err)

		// when
		_, err = f.service.UpdateRecord(userContext(1), WorkRecord{
			Id: created.Id, Date: date("2026-03-03"), Work: 30, WorkTime: 45,
		})

		// then
		assert.ErrorIs(t, err, ErrFutureDate)
	})

	t.Run("should return not found for unknown record", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		_, err := f.service.UpdateRecord(userContext(1), WorkRecord{Id: 42, Work: 50})

		// then
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestDeleteRecord(t *testing.T) {
	t.Run("should delete own record", func(t *testing.T) {
		// given
		f := setup(t)
		created, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30,
		})
		require.NoError(t, err)

		// when
		deleted, err := f.service.DeleteRecord(userContext(1), created.Id)

		// then
		require.NoError(t, err)
		assert.True(t, deleted)
		progress, err := f.service.SubtaskProgress(context.Background(), f.subtaskId)
		require.NoError(t, err)
		assert.Equal(t, 0, progress)
	})

	t.Run("should return false for unknown record", func(t *testing.T) {
		// given
		f := setup(t)

		// when
		deleted, err := f.service.DeleteRecord(userContext(1), 42)

		// then
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestTotalWorkTime(t *testing.T) {
	t.Run("should sum work time across the task", func(t *testing.T) {
		// given
		f := setup(t)
		_, err := f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-01"), Work: 30, WorkTime: 45,
		})
		require.NoError(t, err)
		_, err = f.service.RecordWork(userContext(1), WorkRecord{
			SubtaskId: f.subtaskId, Date: date("2026-03-02"), Work: 20, WorkTime: 30,
		})
		require.NoError(t, err)

		// when
		total, err := f.service.TotalWorkTime(context.Background(), f.taskId)

		// then
		require.NoError(t, err)
		assert.Equal(t, 75, total)
	})
}
