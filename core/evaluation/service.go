package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/task"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound         = errors.New("evaluation not found")
	ErrEvaluationExists = errors.New("this group has already been evaluated for this task")
)

type Repository interface {
	CreateEvaluation(ctx context.Context, ev Evaluation) (Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	// QueryEvaluations returns the evaluations matching `filter`, oldest first.
	QueryEvaluations(ctx context.Context, filter QueryFilter) ([]Evaluation, error)
	UpdateEvaluation(ctx context.Context, ev Evaluation) (Evaluation, error)
	DeleteEvaluationsByID(ctx context.Context, ids ...string) error
	// ReplaceEvaluations drops every evaluation and stores `evaluations` instead.
	ReplaceEvaluations(ctx context.Context, evaluations []Evaluation) error
}

// TaskGetter fetches the task an evaluation is about.
type TaskGetter interface {
	GetByID(ctx context.Context, id string) (task.Task, error)
}

type Service struct {
	repo  Repository
	tasks TaskGetter
}

func NewService(repo Repository, tasks TaskGetter) *Service {
	return &Service{repo: repo, tasks: tasks}
}

// Validate cleans and validates `ne` against its task: the group must not be evaluated twice for the
// same task, and no score may exceed the task's max score.
func (ne *NewEvaluation) Validate(ctx context.Context, svc *Service) (task.Task, error) {
	ne.clean()
	scores, err := cleanScoreKeys(ne.Scores)
	if err != nil {
		return task.Task{}, err
	}
	ne.Scores = scores
	if err := core.Validate.Struct(ne); err != nil {
		return task.Task{}, err
	}
	tsk, err := svc.tasks.GetByID(ctx, ne.TaskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return tsk, core.NewValidationError(err, core.FieldError{Field: "taskId", Error: err.Error()})
		}
		return tsk, err
	}

	existing, err := svc.repo.QueryEvaluations(ctx, QueryFilter{TaskID: ne.TaskID, GroupID: ne.GroupID})
	if err != nil {
		return tsk, err
	}
	if len(existing) > 0 {
		return tsk, core.NewValidationError(ErrEvaluationExists, core.FieldError{Field: "groupId", Error: ErrEvaluationExists.Error()})
	}
	return tsk, checkScores(ne.Scores, tsk.EffectiveMaxScore())
}

func (ue *UpdateEvaluation) Validate(ctx context.Context, origEval Evaluation, svc *Service) error {
	ue.EvaluationDate = core.CleanString(ue.EvaluationDate)
	scores, err := cleanScoreKeys(ue.Scores)
	if err != nil {
		return err
	}
	ue.Scores = scores
	if err := core.Validate.Struct(ue); err != nil {
		return err
	}
	maxScore := origEval.MaxPossibleScore.Float64()
	if tsk, err := svc.tasks.GetByID(ctx, origEval.TaskID); err == nil {
		maxScore = tsk.EffectiveMaxScore()
	} else if !errors.Is(err, task.ErrNotFound) {
		return err
	}
	return checkScores(ue.Scores, maxScore)
}

// cleanScoreKeys trims the student ids keying `scores`. Two keys naming the same student are rejected.
func cleanScoreKeys(scores map[string]NewScore) (map[string]NewScore, error) {
	if scores == nil {
		return nil, nil
	}
	res := make(map[string]NewScore, len(scores))
	var fields []core.FieldError
	for _, key := range sortedKeys(scores) {
		id := core.CleanString(key)
		if _, ok := res[id]; ok {
			fields = append(fields, core.FieldError{
				Field: "scores." + id,
				Error: fmt.Sprintf("student %q is scored more than once", id),
			})
			continue
		}
		res[id] = scores[key]
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError(nil, fields...)
	}
	return res, nil
}

func checkScores(scores map[string]NewScore, maxScore float64) error {
	if maxScore <= 0 {
		return nil
	}
	var fields []core.FieldError
	for _, id := range sortedKeys(scores) {
		if total := scores[id].score().Total(); total > maxScore {
			fields = append(fields, core.FieldError{
				Field: "scores." + id,
				Error: fmt.Sprintf("total score %g exceeds the max score %g", total, maxScore),
			})
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(nil, fields...)
	}
	return nil
}

func sortedKeys(scores map[string]NewScore) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func toScores(scores map[string]NewScore) map[string]Score {
	res := make(map[string]Score, len(scores))
	for id, ns := range scores {
		res[id] = ns.score()
	}
	return res
}

// Create stores a new evaluation of `tsk`, as returned by NewEvaluation.Validate.
func (svc *Service) Create(ctx context.Context, ne NewEvaluation, tsk task.Task) (Evaluation, error) {
	now := core.TimestampFrom(nowFunc().UTC())
	evalDate := core.ParseTimestamp(ne.EvaluationDate)
	if !evalDate.IsSet() {
		evalDate = now
	}
	ev := Evaluation{
		ID:               uuid.New().String(),
		TaskID:           ne.TaskID,
		GroupID:          ne.GroupID,
		MaxPossibleScore: core.Float(tsk.EffectiveMaxScore()),
		Scores:           toScores(ne.Scores),
		TaskDate:         tsk.Date,
		EvaluationDate:   evalDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateEvaluation(ctx, ev)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Evaluation, error) {
	return svc.repo.QueryEvaluations(ctx, QueryFilter{})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Evaluation, error) {
	filter.Clean()
	return svc.repo.QueryEvaluations(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Evaluation, error) {
	return svc.repo.GetEvaluation(ctx, id)
}

func (svc *Service) Update(ctx context.Context, ev Evaluation, ue UpdateEvaluation) (Evaluation, error) {
	ev.Scores = toScores(ue.Scores)
	if d := core.ParseTimestamp(ue.EvaluationDate); d.IsSet() {
		ev.EvaluationDate = d
	}
	ev.UpdatedAt = core.TimestampFrom(nowFunc().UTC())
	return svc.repo.UpdateEvaluation(ctx, ev)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEvaluationsByID(ctx, ids...)
}
