package worklog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRecordNotFound = errors.New("work record not found")
var ErrRecordAlreadyExists = errors.New("work record already exists for this date")

type Repository interface {
	CreateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error)
	UpdateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error)
	DeleteRecord(ctx context.Context, id int) (bool, error)
	GetRecord(ctx context.Context, id int) (WorkRecord, error)
	ListBySubtask(ctx context.Context, subtaskId int) ([]WorkRecord, error)
	ListByTask(ctx context.Context, taskId int) ([]WorkRecord, error)
	SumWorkBySubtask(ctx context.Context, subtaskId int) (int, error)
	SumWorkTimeByTask(ctx context.Context, taskId int) (int, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) CreateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	query := `INSERT INTO record_works (subtask_id, date, work, work_time_min)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	err := r.db.QueryRow(ctx, query, record.SubtaskId, record.Date, record.Work, record.WorkTime).Scan(&record.Id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WorkRecord{}, ErrRecordAlreadyExists
		}
		return WorkRecord{}, fmt.Errorf("could not insert work record: %w", err)
	}
	return record, nil
}

func (r *repositoryImpl) UpdateRecord(ctx context.Context, record WorkRecord) (WorkRecord, error) {
	query := `UPDATE record_works SET work = $1, work_time_min = $2, date = $3 WHERE id = $4`
	result, err := r.db.Exec(ctx, query, record.Work, record.WorkTime, record.Date, record.Id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WorkRecord{}, ErrRecordAlreadyExists
		}
		return WorkRecord{}, fmt.Errorf("could not update work record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return WorkRecord{}, ErrRecordNotFound
	}
	return r.GetRecord(ctx, record.Id)
}

func (r *repositoryImpl) DeleteRecord(ctx context.Context, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM record_works WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *repositoryImpl) GetRecord(ctx context.Context, id int) (WorkRecord, error) {
	query := `SELECT rw.id, rw.subtask_id, rw.date, rw.work, rw.work_time_min
			  FROM record_works rw
			  WHERE rw.id = $1`
	var record WorkRecord
	err := r.db.QueryRow(ctx, query, id).Scan(
		&record.Id,
		&record.SubtaskId,
		&record.Date,
		&record.Work,
		&record.WorkTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkRecord{}, ErrRecordNotFound
		}
		return WorkRecord{}, fmt.Errorf("could not get work record: %w", err)
	}
	return record, nil
}

func (r *repositoryImpl) ListBySubtask(ctx context.Context, subtaskId int) ([]WorkRecord, error) {
	query := `SELECT rw.id, rw.subtask_id, rw.date, rw.work, rw.work_time_min
			  FROM record_works rw
			  WHERE rw.subtask_id = $1
			  ORDER BY rw.date`
	return r.queryRecords(ctx, query, subtaskId)
}

func (r *repositoryImpl) ListByTask(ctx context.Context, taskId int) ([]WorkRecord, error) {
	query := `SELECT rw.id, rw.subtask_id, rw.date, rw.work, rw.work_time_min
			  FROM record_works rw
			  JOIN subtasks s ON s.id = rw.subtask_id
			  WHERE s.task_id = $1
			  ORDER BY rw.date, rw.subtask_id`
	return r.queryRecords(ctx, query, taskId)
}

func (r *repositoryImpl) SumWorkBySubtask(ctx context.Context, subtaskId int) (int, error) {
	query := `SELECT COALESCE(SUM(rw.work), 0) FROM record_works rw WHERE rw.subtask_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, query, subtaskId).Scan(&total); err != nil {
		return 0, fmt.Errorf("could not sum work: %w", err)
	}
	return total, nil
}

func (r *repositoryImpl) SumWorkTimeByTask(ctx context.Context, taskId int) (int, error) {
	query := `SELECT COALESCE(SUM(rw.work_time_min), 0)
			  FROM record_works rw
			  JOIN subtasks s ON s.id = rw.subtask_id
			  WHERE s.task_id = $1`
	var total int
	if err := r.db.QueryRow(ctx, query, taskId).Scan(&total); err != nil {
		return 0, fmt.Errorf("could not sum work time: %w", err)
	}
	return total, nil
}

func (r *repositoryImpl) queryRecords(ctx context.Context, query string, args ...any) ([]WorkRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []WorkRecord
	for rows.Next() {
		var record WorkRecord
		if err := rows.Scan(
			&record.Id,
			&record.SubtaskId,
			&record.Date,
			&record.Work,
			&record.WorkTime,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
