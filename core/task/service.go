package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/evalboard/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("task not found")
)

type Repository interface {
	CreateTask(ctx context.Context, tsk Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	// QueryTasks returns the tasks ordered by date, oldest first.
	QueryTasks(ctx context.Context, filter QueryFilter) ([]Task, error)
	UpdateTask(ctx context.Context, tsk Task) (Task, error)
	DeleteTasksByID(ctx context.Context, ids ...string) error
	// ReplaceTasks drops every task and stores `tasks` instead.
	ReplaceTasks(ctx context.Context, tasks []Task) error
}

type Service struct {
	repo     Repository
	schedule Schedule
}

func NewService(repo Repository, sch Schedule) *Service {
	return &Service{repo: repo, schedule: sch}
}

// ScheduleFromConfig reads the deadline schedule from the app configuration.
func ScheduleFromConfig(conf *core.Config) Schedule {
	hour, min := conf.Task.Clock()
	return Schedule{Location: conf.Task.Location(), Hour: hour, Minute: min}
}

func (svc *Service) Schedule() Schedule {
	return svc.schedule
}

// WithStatus returns `tasks` with their Status resolved at `now`.
func (svc *Service) WithStatus(tasks []Task, now time.Time) []Task {
	resolved := make([]Task, len(tasks))
	for i, t := range tasks {
		t.Status = t.ResolveStatus(now, svc.schedule)
		resolved[i] = t
	}
	return resolved
}

func (svc *Service) Create(ctx context.Context, nt NewTask) (Task, error) {
	now := core.TimestampFrom(nowFunc().UTC())
	tsk := Task{
		ID:                uuid.New().String(),
		Name:              nt.Name,
		Description:       nt.Description,
		Date:              core.ParseTimestamp(nt.Date),
		MaxScore:          core.Float(nt.MaxScore),
		MaxScoreBreakdown: nt.MaxScoreBreakdown.breakdown(),
		Status:            Status(nt.Status),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if tsk.MaxScore <= 0 {
		tsk.MaxScore = core.Float(tsk.MaxScoreBreakdown.Total())
	}
	return svc.repo.CreateTask(ctx, tsk)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, QueryFilter{})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Task, error) {
	filter.Clean()
	return svc.repo.QueryTasks(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

func (svc *Service) Update(ctx context.Context, tsk Task, ut UpdateTask) (Task, error) {
	tsk.Name = ut.Name
	if ut.Description != nil {
		tsk.Description = core.CleanString(*ut.Description)
	}
	if ut.Date != "" {
		tsk.Date = core.ParseTimestamp(ut.Date)
	}
	if ut.MaxScoreBreakdown != nil {
		tsk.MaxScoreBreakdown = ut.MaxScoreBreakdown.breakdown()
	}
	if ut.MaxScore != nil {
		tsk.MaxScore = core.Float(*ut.MaxScore)
	}
	if tsk.MaxScore <= 0 {
		tsk.MaxScore = core.Float(tsk.MaxScoreBreakdown.Total())
	}
	if ut.Status != nil {
		tsk.Status = Status(*ut.Status)
	}
	tsk.UpdatedAt = core.TimestampFrom(nowFunc().UTC())
	return svc.repo.UpdateTask(ctx, tsk)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTasksByID(ctx, ids...)
}
