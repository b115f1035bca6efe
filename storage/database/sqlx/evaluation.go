package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
)

const (
	evaluationColumns = "id, task_id, group_id, max_possible_score, scores, task_date, task_date_only, " +
		"evaluation_date, evaluation_date_only, created_at, updated_at"
	insertEvaluation = `INSERT INTO evaluations (` + evaluationColumns + `) VALUES
		(:id, :task_id, :group_id, :max_possible_score, :scores, :task_date, :task_date_only,
		:evaluation_date, :evaluation_date_only, :created_at, :updated_at)`
)

type evaluationRow struct {
	ID                 string    `db:"id"`
	TaskID             string    `db:"task_id"`
	GroupID            string    `db:"group_id"`
	MaxPossibleScore   float64   `db:"max_possible_score"`
	Scores             null.JSON `db:"scores"`
	TaskDate           null.Time `db:"task_date"`
	TaskDateOnly       bool      `db:"task_date_only"`
	EvaluationDate     null.Time `db:"evaluation_date"`
	EvaluationDateOnly bool      `db:"evaluation_date_only"`
	CreatedAt          null.Time `db:"created_at"`
	UpdatedAt          null.Time `db:"updated_at"`
}

func newEvaluationRow(ev evaluation.Evaluation) (evaluationRow, error) {
	scores := ev.Scores
	if scores == nil {
		scores = map[string]evaluation.Score{}
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return evaluationRow{}, errors.Wrap(err, "encoding scores")
	}
	return evaluationRow{
		ID:                 ev.ID,
		TaskID:             ev.TaskID,
		GroupID:            ev.GroupID,
		MaxPossibleScore:   ev.MaxPossibleScore.Float64(),
		Scores:             null.JSONFrom(data),
		TaskDate:           nullTime(ev.TaskDate),
		TaskDateOnly:       ev.TaskDate.DateOnly,
		EvaluationDate:     nullTime(ev.EvaluationDate),
		EvaluationDateOnly: ev.EvaluationDate.DateOnly,
		CreatedAt:          nullTime(ev.CreatedAt),
		UpdatedAt:          nullTime(ev.UpdatedAt),
	}, nil
}

func (r evaluationRow) evaluation() (evaluation.Evaluation, error) {
	ev := evaluation.Evaluation{
		ID:               r.ID,
		TaskID:           r.TaskID,
		GroupID:          r.GroupID,
		MaxPossibleScore: core.Float(r.MaxPossibleScore),
		Scores:           make(map[string]evaluation.Score),
		TaskDate:         timestamp(r.TaskDate, r.TaskDateOnly),
		EvaluationDate:   timestamp(r.EvaluationDate, r.EvaluationDateOnly),
		CreatedAt:        timestamp(r.CreatedAt, false),
		UpdatedAt:        timestamp(r.UpdatedAt, false),
	}
	if r.Scores.Valid {
		if err := json.Unmarshal(r.Scores.JSON, &ev.Scores); err != nil {
			return evaluation.Evaluation{}, errors.Wrapf(err, "decoding scores of evaluation %s", r.ID)
		}
	}
	return ev, nil
}

type evaluationRepository struct {
	db *sqlx.DB
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *sqlx.DB) *evaluationRepository {
	return &evaluationRepository{db: db}
}

func (repo *evaluationRepository) CreateEvaluation(ctx context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	row, err := newEvaluationRow(ev)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	if _, err := repo.db.NamedExecContext(ctx, insertEvaluation, row); err != nil {
		return evaluation.Evaluation{}, err
	}
	return ev, nil
}

func (repo *evaluationRepository) GetEvaluation(ctx context.Context, id string) (evaluation.Evaluation, error) {
	var row evaluationRow
	q := repo.db.Rebind("SELECT " + evaluationColumns + " FROM evaluations WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return evaluation.Evaluation{}, trapNoRowsErr(err, evaluation.ErrNotFound)
	}
	return row.evaluation()
}

func evaluationQuery(filter evaluation.QueryFilter) (string, []interface{}) {
	var w where
	if filter.TaskID != "" {
		w.add("task_id = ?", filter.TaskID)
	}
	if filter.GroupID != "" {
		w.add("group_id = ?", filter.GroupID)
	}
	if filter.StudentID != "" {
		// jsonb_exists is the `?` operator, which would clash with bind vars
		w.add("jsonb_exists(scores, ?)", filter.StudentID)
	}
	return "SELECT " + evaluationColumns + " FROM evaluations" + w.String() + " ORDER BY created_at ASC NULLS FIRST, id ASC", w.args
}

func (repo *evaluationRepository) QueryEvaluations(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	q, args := evaluationQuery(filter)
	var rows []evaluationRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	evals := make([]evaluation.Evaluation, 0, len(rows))
	for _, r := range rows {
		ev, err := r.evaluation()
		if err != nil {
			return nil, err
		}
		evals = append(evals, ev)
	}
	return evals, nil
}

func (repo *evaluationRepository) UpdateEvaluation(ctx context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	row, err := newEvaluationRow(ev)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `UPDATE evaluations SET
		task_id = :task_id, group_id = :group_id, max_possible_score = :max_possible_score, scores = :scores,
		task_date = :task_date, task_date_only = :task_date_only, evaluation_date = :evaluation_date,
		evaluation_date_only = :evaluation_date_only, created_at = :created_at, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	if err := checkAffected(res, evaluation.ErrNotFound); err != nil {
		return evaluation.Evaluation{}, err
	}
	return ev, nil
}

func (repo *evaluationRepository) DeleteEvaluationsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "evaluations", ids)
}

func (repo *evaluationRepository) ReplaceEvaluations(ctx context.Context, evaluations []evaluation.Evaluation) error {
	rows := make([]interface{}, 0, len(evaluations))
	for _, ev := range evaluations {
		row, err := newEvaluationRow(ev)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return replaceAll(ctx, repo.db, "evaluations", insertEvaluation, rows)
}
