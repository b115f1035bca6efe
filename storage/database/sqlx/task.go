package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/task"
)

const (
	taskColumns = "id, name, description, date, date_only, max_score, max_score_breakdown, status, created_at, updated_at"
	insertTask  = `INSERT INTO tasks (` + taskColumns + `) VALUES
		(:id, :name, :description, :date, :date_only, :max_score, :max_score_breakdown, :status, :created_at, :updated_at)`
)

type taskRow struct {
	ID                string      `db:"id"`
	Name              string      `db:"name"`
	Description       string      `db:"description"`
	Date              null.Time   `db:"date"`
	DateOnly          bool        `db:"date_only"`
	MaxScore          float64     `db:"max_score"`
	MaxScoreBreakdown null.JSON   `db:"max_score_breakdown"`
	Status            null.String `db:"status"`
	CreatedAt         null.Time   `db:"created_at"`
	UpdatedAt         null.Time   `db:"updated_at"`
}

func newTaskRow(tsk task.Task) (taskRow, error) {
	breakdown, err := json.Marshal(tsk.MaxScoreBreakdown)
	if err != nil {
		return taskRow{}, errors.Wrap(err, "encoding max score breakdown")
	}
	return taskRow{
		ID:                tsk.ID,
		Name:              tsk.Name,
		Description:       tsk.Description,
		Date:              nullTime(tsk.Date),
		DateOnly:          tsk.Date.DateOnly,
		MaxScore:          tsk.MaxScore.Float64(),
		MaxScoreBreakdown: null.JSONFrom(breakdown),
		Status:            nullString(string(tsk.Status)),
		CreatedAt:         nullTime(tsk.CreatedAt),
		UpdatedAt:         nullTime(tsk.UpdatedAt),
	}, nil
}

func (r taskRow) task() task.Task {
	tsk := task.Task{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Date:        timestamp(r.Date, r.DateOnly),
		MaxScore:    core.Float(r.MaxScore),
		Status:      task.Status(r.Status.String),
		CreatedAt:   timestamp(r.CreatedAt, false),
		UpdatedAt:   timestamp(r.UpdatedAt, false),
	}
	if r.MaxScoreBreakdown.Valid {
		// lenient core.Float fields never fail on well-formed json
		_ = json.Unmarshal(r.MaxScoreBreakdown.JSON, &tsk.MaxScoreBreakdown)
	}
	return tsk
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	row, err := newTaskRow(tsk)
	if err != nil {
		return task.Task{}, err
	}
	if _, err := repo.db.NamedExecContext(ctx, insertTask, row); err != nil {
		return task.Task{}, err
	}
	return tsk, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	q := repo.db.Rebind("SELECT " + taskColumns + " FROM tasks WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound)
	}
	return row.task(), nil
}

func taskQuery(filter task.QueryFilter) (string, []interface{}) {
	var w where
	if filter.Search != "" {
		w.add("LOWER(name) LIKE ?", contains(filter.Search))
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	// undated tasks first, like the zero time
	return "SELECT " + taskColumns + " FROM tasks" + w.String() + " ORDER BY date ASC NULLS FIRST, id ASC", w.args
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter) ([]task.Task, error) {
	q, args := taskQuery(filter)
	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, tsk task.Task) (task.Task, error) {
	row, err := newTaskRow(tsk)
	if err != nil {
		return task.Task{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `UPDATE tasks SET
		name = :name, description = :description, date = :date, date_only = :date_only, max_score = :max_score,
		max_score_breakdown = :max_score_breakdown, status = :status, created_at = :created_at, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return task.Task{}, err
	}
	if err := checkAffected(res, task.ErrNotFound); err != nil {
		return task.Task{}, err
	}
	return tsk, nil
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "tasks", ids)
}

func (repo *taskRepository) ReplaceTasks(ctx context.Context, tasks []task.Task) error {
	rows := make([]interface{}, 0, len(tasks))
	for _, tsk := range tasks {
		row, err := newTaskRow(tsk)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return replaceAll(ctx, repo.db, "tasks", insertTask, rows)
}
