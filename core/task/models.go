package task

import (
	"context"
	"time"

	"github.com/trezcool/evalboard/core"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

var Statuses = []Status{StatusUpcoming, StatusOngoing, StatusCompleted}

func (s Status) IsValid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

type MaxScoreBreakdown struct {
	Task       core.Float `json:"task"`
	Team       core.Float `json:"team"`
	Additional core.Float `json:"additional"`
	MCQ        core.Float `json:"mcq"`
}

func (b MaxScoreBreakdown) Total() float64 {
	return b.Task.Float64() + b.Team.Float64() + b.Additional.Float64() + b.MCQ.Float64()
}

type Task struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Date              core.Timestamp    `json:"date"`
	MaxScore          core.Float        `json:"maxScore"`
	MaxScoreBreakdown MaxScoreBreakdown `json:"maxScoreBreakdown"`
	Status            Status            `json:"status,omitempty"` // empty: derived from Date
	CreatedAt         core.Timestamp    `json:"createdAt"`
	UpdatedAt         core.Timestamp    `json:"updatedAt"`
}

// EffectiveMaxScore is MaxScore when set, else the sum of the breakdown.
func (t Task) EffectiveMaxScore() float64 {
	if ms := t.MaxScore.Float64(); ms > 0 {
		return ms
	}
	return t.MaxScoreBreakdown.Total()
}

// Schedule tells how task deadlines are read: in which timezone,
// and at what clock time a date-only deadline falls.
type Schedule struct {
	Location *time.Location
	Hour     int
	Minute   int
}

var DefaultSchedule = Schedule{Location: time.UTC, Hour: 11, Minute: 55}

func (sch Schedule) loc() *time.Location {
	if sch.Location == nil {
		return time.UTC
	}
	return sch.Location
}

// Deadline returns the moment the task is due. Deadlines at midnight get the schedule's clock time.
func (t Task) Deadline(sch Schedule) (time.Time, bool) {
	if !t.Date.IsSet() {
		return time.Time{}, false
	}
	loc := sch.loc()

	var y int
	var m time.Month
	var d int
	if t.Date.DateOnly {
		y, m, d = t.Date.Time.Date()
	} else {
		local := t.Date.Time.In(loc)
		if local.Hour() != 0 || local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
			return local, true
		}
		y, m, d = local.Date()
	}
	return time.Date(y, m, d, sch.Hour, sch.Minute, 0, 0, loc), true
}

// ResolveStatus returns the stored status when valid, else derives it from the deadline:
// same calendar day as `now` is ongoing, later is upcoming, earlier is completed.
func (t Task) ResolveStatus(now time.Time, sch Schedule) Status {
	if t.Status.IsValid() {
		return t.Status
	}
	deadline, ok := t.Deadline(sch)
	if !ok {
		return StatusUpcoming
	}
	now = now.In(sch.loc())
	if sameDay(deadline, now) {
		return StatusOngoing
	}
	if deadline.After(now) {
		return StatusUpcoming
	}
	return StatusCompleted
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type NewMaxScoreBreakdown struct {
	Task       float64 `json:"task" validate:"gte=0"`
	Team       float64 `json:"team" validate:"gte=0"`
	Additional float64 `json:"additional" validate:"gte=0"`
	MCQ        float64 `json:"mcq" validate:"gte=0"`
}

func (b NewMaxScoreBreakdown) breakdown() MaxScoreBreakdown {
	return MaxScoreBreakdown{
		Task:       core.Float(b.Task),
		Team:       core.Float(b.Team),
		Additional: core.Float(b.Additional),
		MCQ:        core.Float(b.MCQ),
	}
}

// NewTask contains information needed to create a new Task.
// One of MaxScore or MaxScoreBreakdown is required.
type NewTask struct {
	Name              string               `json:"name" validate:"required,notblank,max=200"`
	Description       string               `json:"description" validate:"omitempty,max=2000"`
	Date              string               `json:"date" validate:"required,task_date"`
	MaxScore          float64              `json:"maxScore" validate:"gte=0"`
	MaxScoreBreakdown NewMaxScoreBreakdown `json:"maxScoreBreakdown"`
	Status            string               `json:"status" validate:"omitempty,task_status"`
}

func (nt *NewTask) Validate() error {
	nt.Name = core.CleanString(nt.Name)
	nt.Description = core.CleanString(nt.Description)
	nt.Date = core.CleanString(nt.Date)
	nt.Status = core.CleanString(nt.Status, true /* lower */)
	return core.Validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
type UpdateTask struct {
	Name              string                `json:"name" validate:"omitempty,max=200"`
	Description       *string               `json:"description" validate:"omitempty,max=2000"`
	Date              string                `json:"date" validate:"omitempty,task_date"`
	MaxScore          *float64              `json:"maxScore" validate:"omitempty,gte=0"`
	MaxScoreBreakdown *NewMaxScoreBreakdown `json:"maxScoreBreakdown"`
	Status            *string               `json:"status" validate:"omitempty,task_status"` // "" resets to derived
}

func (ut *UpdateTask) Validate(_ context.Context, origTask Task) error {
	ut.Name = core.CleanString(ut.Name)
	if ut.Name == "" {
		ut.Name = origTask.Name
	}
	ut.Date = core.CleanString(ut.Date)
	if ut.Status != nil {
		st := core.CleanString(*ut.Status, true /* lower */)
		ut.Status = &st
	}
	return core.Validate.Struct(ut)
}

type QueryFilter struct {
	Search string `query:"search"`
	Status Status `query:"status"` // matched against the stored status only
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
}
