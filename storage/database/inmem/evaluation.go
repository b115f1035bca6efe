package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/evalboard/core/evaluation"
)

type evaluationRepository struct {
	db *evaluationTable
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) *evaluationRepository {
	return &evaluationRepository{db: db.evaluation}
}

// clone copies the scores map so stored evaluations are never shared with callers.
func clone(ev evaluation.Evaluation) *evaluation.Evaluation {
	scores := make(map[string]evaluation.Score, len(ev.Scores))
	for id, sc := range ev.Scores {
		scores[id] = sc
	}
	ev.Scores = scores
	return &ev
}

func (repo *evaluationRepository) CreateEvaluation(_ context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[ev.ID] = clone(ev)
	return *clone(ev), nil
}

func (repo *evaluationRepository) GetEvaluation(_ context.Context, id string) (evaluation.Evaluation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ev, ok := repo.db.table[id]; ok {
		return *clone(*ev), nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QueryEvaluations(_ context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evals := make([]evaluation.Evaluation, 0, len(repo.db.table))
	for _, ev := range repo.db.table {
		if filter.Match(*ev) {
			evals = append(evals, *clone(*ev))
		}
	}
	sort.Slice(evals, func(i, j int) bool {
		a, b := evals[i].CreatedAt.Millis(), evals[j].CreatedAt.Millis()
		if a != b {
			return a < b
		}
		return evals[i].ID < evals[j].ID
	})
	return evals, nil
}

func (repo *evaluationRepository) UpdateEvaluation(_ context.Context, ev evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[ev.ID]; !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	repo.db.table[ev.ID] = clone(ev)
	return *clone(ev), nil
}

func (repo *evaluationRepository) DeleteEvaluationsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *evaluationRepository) ReplaceEvaluations(_ context.Context, evaluations []evaluation.Evaluation) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = make(map[string]*evaluation.Evaluation, len(evaluations))
	for _, ev := range evaluations {
		repo.db.table[ev.ID] = clone(ev)
	}
	return nil
}
