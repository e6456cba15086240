package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/heyho99/task-management-app/pkg/planner"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	CreateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, userId int, id int) (Task, error)
	ListTasks(ctx context.Context, userId int) ([]Task, error)
	UpdateTask(ctx context.Context, userId int, task Task) (Task, error)
	DeleteTask(ctx context.Context, userId int, id int) (bool, error)
	GetSubtask(ctx context.Context, userId int, subtaskId int) (Subtask, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &repositoryImpl{db: r.db, tx: tx}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *repositoryImpl) CreateTask(ctx context.Context, task Task) (Task, error) {
	var created Task
	err := r.WithTransaction(ctx, func(repo Repository) error {
		txRepo := repo.(*repositoryImpl)

		query := `INSERT INTO tasks (user_id, name, content, category, comment, start_date, due_date, target_time_min)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				  RETURNING id`
		err := txRepo.getQueryer().QueryRow(ctx, query,
			task.UserId,
			task.Name,
			task.Content,
			task.Category,
			task.Comment,
			task.StartDate,
			task.DueDate,
			task.TargetTime,
		).Scan(&task.Id)
		if err != nil {
			return fmt.Errorf("could not insert task: %w", err)
		}

		task.Subtasks, err = txRepo.replaceSubtasks(ctx, task.Id, task.Subtasks)
		if err != nil {
			return err
		}
		if err := txRepo.replacePlans(ctx, task.Id, task.TaskPlans, task.TimePlans); err != nil {
			return err
		}

		created = task
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return created, nil
}

func (r *repositoryImpl) GetTask(ctx context.Context, userId int, id int) (Task, error) {
	query := `SELECT t.id, t.user_id, t.name, t.content, t.category, t.comment,
					 t.start_date, t.due_date, t.target_time_min
			  FROM tasks t
			  WHERE t.user_id = $1 AND t.id = $2`
	var task Task
	err := r.getQueryer().QueryRow(ctx, query, userId, id).Scan(
		&task.Id,
		&task.UserId,
		&task.Name,
		&task.Content,
		&task.Category,
		&task.Comment,
		&task.StartDate,
		&task.DueDate,
		&task.TargetTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, fmt.Errorf("could not get task: %w", err)
	}

	if err := r.loadDetails(ctx, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (r *repositoryImpl) ListTasks(ctx context.Context, userId int) ([]Task, error) {
	query := `SELECT t.id, t.user_id, t.name, t.content, t.category, t.comment,
					 t.start_date, t.due_date, t.target_time_min
			  FROM tasks t
			  WHERE t.user_id = $1
			  ORDER BY t.due_date, t.id`
	rows, err := r.getQueryer().Query(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var task Task
		if err := rows.Scan(
			&task.Id,
			&task.UserId,
			&task.Name,
			&task.Content,
			&task.Category,
			&task.Comment,
			&task.StartDate,
			&task.DueDate,
			&task.TargetTime,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := r.loadDetails(ctx, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (r *repositoryImpl) UpdateTask(ctx context.Context, userId int, task Task) (Task, error) {
	var updated Task
	err := r.WithTransaction(ctx, func(repo Repository) error {
		txRepo := repo.(*repositoryImpl)

		query := `UPDATE tasks
				  SET name = $1, content = $2, category = $3, comment = $4,
					  start_date = $5, due_date = $6, target_time_min = $7
				  WHERE user_id = $8 AND id = $9`
		result, err := txRepo.getQueryer().Exec(ctx, query,
			task.Name,
			task.Content,
			task.Category,
			task.Comment,
			task.StartDate,
			task.DueDate,
			task.TargetTime,
			userId,
			task.Id,
		)
		if err != nil {
			return fmt.Errorf("could not update task: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrTaskNotFound
		}

		task.UserId = userId
		task.Subtasks, err = txRepo.replaceSubtasks(ctx, task.Id, task.Subtasks)
		if err != nil {
			return err
		}
		if err := txRepo.replacePlans(ctx, task.Id, task.TaskPlans, task.TimePlans); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return updated, nil
}

func (r *repositoryImpl) DeleteTask(ctx context.Context, userId int, id int) (bool, error) {
	// Subtasks, plans, and work records go with the task via FK cascades.
	query := `DELETE FROM tasks WHERE user_id = $1 AND id = $2`
	result, err := r.getQueryer().Exec(ctx, query, userId, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *repositoryImpl) GetSubtask(ctx context.Context, userId int, subtaskId int) (Subtask, error) {
	query := `SELECT s.id, s.task_id, s.name, s.contribution
			  FROM subtasks s
			  JOIN tasks t ON t.id = s.task_id
			  WHERE t.user_id = $1 AND s.id = $2`
	var subtask Subtask
	err := r.getQueryer().QueryRow(ctx, query, userId, subtaskId).Scan(
		&subtask.Id,
		&subtask.TaskId,
		&subtask.Name,
		&subtask.Contribution,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subtask{}, ErrSubtaskNotFound
		}
		return Subtask{}, fmt.Errorf("could not get subtask: %w", err)
	}
	return subtask, nil
}

func (r *repositoryImpl) loadDetails(ctx context.Context, task *Task) error {
	subtasks, err := r.loadSubtasks(ctx, task.Id)
	if err != nil {
		return err
	}
	task.Subtasks = subtasks

	task.TaskPlans, err = r.loadPlans(ctx, "daily_task_plans", task.Id)
	if err != nil {
		return err
	}
	task.TimePlans, err = r.loadPlans(ctx, "daily_time_plans", task.Id)
	if err != nil {
		return err
	}
	return nil
}

func (r *repositoryImpl) loadSubtasks(ctx context.Context, taskId int) ([]Subtask, error) {
	query := `SELECT s.id, s.task_id, s.name, s.contribution
			  FROM subtasks s
			  WHERE s.task_id = $1
			  ORDER BY s.id`
	rows, err := r.getQueryer().Query(ctx, query, taskId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []Subtask
	for rows.Next() {
		var subtask Subtask
		if err := rows.Scan(&subtask.Id, &subtask.TaskId, &subtask.Name, &subtask.Contribution); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, subtask)
	}
	return subtasks, rows.Err()
}

func (r *repositoryImpl) loadPlans(ctx context.Context, table string, taskId int) ([]planner.DailyPlanEntry, error) {
	query := fmt.Sprintf(`SELECT p.date, p.value FROM %s p WHERE p.task_id = $1 ORDER BY p.date`, table)
	rows, err := r.getQueryer().Query(ctx, query, taskId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []planner.DailyPlanEntry
	for rows.Next() {
		var entry planner.DailyPlanEntry
		if err := rows.Scan(&entry.Date, &entry.Value); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// replaceSubtasks reconciles the stored subtasks with the given ones: rows
// with an id are updated in place so their work records survive, rows without
// an id are inserted, and rows no longer present are deleted.
func (r *repositoryImpl) replaceSubtasks(ctx context.Context, taskId int, subtasks []Subtask) ([]Subtask, error) {
	keep := make([]int, 0, len(subtasks))
	result := make([]Subtask, 0, len(subtasks))

	for _, subtask := range subtasks {
		subtask.TaskId = taskId
		if subtask.Id == 0 {
			query := `INSERT INTO subtasks (task_id, name, contribution) VALUES ($1, $2, $3) RETURNING id`
			if err := r.getQueryer().QueryRow(ctx, query, taskId, subtask.Name, subtask.Contribution).Scan(&subtask.Id); err != nil {
				return nil, fmt.Errorf("could not insert subtask: %w", err)
			}
		} else {
			query := `UPDATE subtasks SET name = $1, contribution = $2 WHERE id = $3 AND task_id = $4`
			tag, err := r.getQueryer().Exec(ctx, query, subtask.Name, subtask.Contribution, subtask.Id, taskId)
			if err != nil {
				return nil, fmt.Errorf("could not update subtask: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return nil, fmt.Errorf("%w: id %d", ErrSubtaskNotFound, subtask.Id)
			}
		}
		keep = append(keep, subtask.Id)
		result = append(result, subtask)
	}

	var err error
	if len(keep) == 0 {
		_, err = r.getQueryer().Exec(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskId)
	} else {
		placeholders := make([]string, len(keep))
		args := make([]any, 0, len(keep)+1)
		args = append(args, taskId)
		for i, id := range keep {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, id)
		}
		query := fmt.Sprintf(`DELETE FROM subtasks WHERE task_id = $1 AND id NOT IN (%s)`, strings.Join(placeholders, ","))
		_, err = r.getQueryer().Exec(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("could not delete removed subtasks: %w", err)
	}

	return result, nil
}

// replacePlans rewrites both daily plan tables for the task. Plans have no
// identity of their own, so delete and reinsert is simpler than reconciling.
func (r *repositoryImpl) replacePlans(ctx context.Context, taskId int, taskPlans []planner.DailyPlanEntry, timePlans []planner.DailyPlanEntry) error {
	if err := r.insertPlans(ctx, "daily_task_plans", taskId, taskPlans); err != nil {
		return err
	}
	return r.insertPlans(ctx, "daily_time_plans", taskId, timePlans)
}

func (r *repositoryImpl) insertPlans(ctx context.Context, table string, taskId int, entries []planner.DailyPlanEntry) error {
	if _, err := r.getQueryer().Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE task_id = $1`, table), taskId); err != nil {
		return fmt.Errorf("could not clear %s: %w", table, err)
	}
	if len(entries) == 0 {
		return nil
	}

	var valuesBuilder strings.Builder
	args := make([]any, 0, len(entries)*3)
	placeholder := 1
	for idx, entry := range entries {
		if idx > 0 {
			valuesBuilder.WriteByte(',')
		}
		fmt.Fprintf(&valuesBuilder, "($%d,$%d,$%d)", placeholder, placeholder+1, placeholder+2)
		placeholder += 3
		args = append(args, taskId, entry.Date.Format(time.DateOnly), entry.Value)
	}

	query := fmt.Sprintf(`INSERT INTO %s (task_id, date, value) VALUES %s`, table, valuesBuilder.String())
	if _, err := r.getQueryer().Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("could not insert %s: %w", table, err)
	}
	return nil
}
