package evaluation

import (
	"sort"
	"strings"

	"github.com/trezcool/evalboard/core"
)

// Score is one student's marks in an Evaluation.
type Score struct {
	TaskScore       core.Float `json:"taskScore"`
	TeamScore       core.Float `json:"teamScore"`
	MCQScore        core.Float `json:"mcqScore"`
	AdditionalScore core.Float `json:"additionalScore"`
	TotalScore      core.Float `json:"totalScore"`
	Comments        string     `json:"comments,omitempty"`
}

// Total is TotalScore when non-zero, else the sum of the components.
func (s Score) Total() float64 {
	if t := s.TotalScore.Float64(); t != 0 {
		return t
	}
	return s.TaskScore.Float64() + s.TeamScore.Float64() + s.MCQScore.Float64() + s.AdditionalScore.Float64()
}

// Evaluation holds the scores a group earned on a task.
type Evaluation struct {
	ID               string           `json:"id"`
	TaskID           string           `json:"taskId"`
	GroupID          string           `json:"groupId"`
	MaxPossibleScore core.Float       `json:"maxPossibleScore"`
	Scores           map[string]Score `json:"scores"` // keyed by student id
	TaskDate         core.Timestamp   `json:"taskDate"`
	EvaluationDate   core.Timestamp   `json:"evaluationDate"`
	CreatedAt        core.Timestamp   `json:"createdAt"`
	UpdatedAt        core.Timestamp   `json:"updatedAt"`
}

// MaxScore returns MaxPossibleScore, or `fallback` when it is not positive.
func (e Evaluation) MaxScore(fallback float64) float64 {
	if ms := e.MaxPossibleScore.Float64(); ms > 0 {
		return ms
	}
	return fallback
}

// LatestMillis returns the epoch ms of the first present of `taskDate`, UpdatedAt, EvaluationDate
// and CreatedAt. `taskDate` is the task's own date; the evaluation's TaskDate is used when unset.
func (e Evaluation) LatestMillis(taskDate core.Timestamp) int64 {
	if !taskDate.IsSet() {
		taskDate = e.TaskDate
	}
	for _, ts := range []core.Timestamp{taskDate, e.UpdatedAt, e.EvaluationDate, e.CreatedAt} {
		if ts.IsSet() {
			return ts.Millis()
		}
	}
	return 0
}

// StudentIDs returns the ids of the scored students, sorted.
func (e Evaluation) StudentIDs() []string {
	ids := make([]string, 0, len(e.Scores))
	for id := range e.Scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type NewScore struct {
	TaskScore       float64 `json:"taskScore" validate:"gte=0"`
	TeamScore       float64 `json:"teamScore" validate:"gte=0"`
	MCQScore        float64 `json:"mcqScore" validate:"gte=0"`
	AdditionalScore float64 `json:"additionalScore" validate:"gte=0"`
	TotalScore      float64 `json:"totalScore" validate:"gte=0"`
	Comments        string  `json:"comments" validate:"omitempty,max=500"`
}

func (ns NewScore) score() Score {
	return Score{
		TaskScore:       core.Float(ns.TaskScore),
		TeamScore:       core.Float(ns.TeamScore),
		MCQScore:        core.Float(ns.MCQScore),
		AdditionalScore: core.Float(ns.AdditionalScore),
		TotalScore:      core.Float(ns.TotalScore),
		Comments:        core.CleanString(ns.Comments),
	}
}

// NewEvaluation contains information needed to create a new Evaluation.
type NewEvaluation struct {
	TaskID         string              `json:"taskId" validate:"required,notblank"`
	GroupID        string              `json:"groupId" validate:"required,notblank"`
	Scores         map[string]NewScore `json:"scores" validate:"required,min=1,dive,keys,required,notblank,endkeys"`
	EvaluationDate string              `json:"evaluationDate" validate:"omitempty,eval_date"`
}

func (ne *NewEvaluation) clean() {
	ne.TaskID = core.CleanString(ne.TaskID)
	ne.GroupID = core.CleanString(ne.GroupID)
	ne.EvaluationDate = core.CleanString(ne.EvaluationDate)
}

// UpdateEvaluation replaces the scores of an existing Evaluation.
type UpdateEvaluation struct {
	Scores         map[string]NewScore `json:"scores" validate:"required,min=1,dive,keys,required,notblank,endkeys"`
	EvaluationDate string              `json:"evaluationDate" validate:"omitempty,eval_date"`
}

type QueryFilter struct {
	TaskID    string `query:"task"`
	GroupID   string `query:"group"`
	StudentID string `query:"student"` // evaluations scoring this student
}

func (qf *QueryFilter) Clean() {
	qf.TaskID = strings.TrimSpace(qf.TaskID)
	qf.GroupID = strings.TrimSpace(qf.GroupID)
	qf.StudentID = strings.TrimSpace(qf.StudentID)
}

// Match reports whether `e` satisfies every set field of the filter.
func (qf QueryFilter) Match(e Evaluation) bool {
	if qf.TaskID != "" && e.TaskID != qf.TaskID {
		return false
	}
	if qf.GroupID != "" && e.GroupID != qf.GroupID {
		return false
	}
	if qf.StudentID != "" {
		if _, ok := e.Scores[qf.StudentID]; !ok {
			return false
		}
	}
	return true
}
