package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/task"
)

type taskGetterMock map[string]task.Task

func (m taskGetterMock) GetByID(_ context.Context, id string) (task.Task, error) {
	tsk, ok := m[id]
	if !ok {
		return tsk, task.ErrNotFound
	}
	return tsk, nil
}

type repositoryMock struct {
	Repository
	evaluations []Evaluation
}

func (m *repositoryMock) QueryEvaluations(_ context.Context, filter QueryFilter) ([]Evaluation, error) {
	var res []Evaluation
	for _, ev := range m.evaluations {
		if filter.Match(ev) {
			res = append(res, ev)
		}
	}
	return res, nil
}

func newServiceMock() *Service {
	tasks := taskGetterMock{"t1": {ID: "t1", Name: "Essay", MaxScore: core.Float(20)}}
	return NewService(&repositoryMock{}, tasks)
}

func TestNewEvaluation_Validate_scoreKeys(t *testing.T) {
	svc := newServiceMock()

	tests := []struct {
		name       string
		scores     map[string]NewScore
		wantFields []core.FieldError
		wantIDs    []string
	}{
		{
			name:    "trimmed",
			scores:  map[string]NewScore{" s1 ": {TotalScore: 12}, "s2": {TotalScore: 8}},
			wantIDs: []string{"s1", "s2"},
		},
		{
			name:   "same student twice",
			scores: map[string]NewScore{" s1": {TotalScore: 12}, "s1": {TotalScore: 8}},
			wantFields: []core.FieldError{
				{Field: "scores.s1", Error: `student "s1" is scored more than once`},
			},
		},
		{
			name:   "over the max score",
			scores: map[string]NewScore{"s1 ": {TotalScore: 21}},
			wantFields: []core.FieldError{
				{Field: "scores.s1", Error: "total score 21 exceeds the max score 20"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := NewEvaluation{TaskID: "t1", GroupID: "g1", Scores: tt.scores}
			_, err := ne.Validate(context.Background(), svc)

			if tt.wantFields != nil {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want a validation error, got %v", err)
				assert.Equal(t, tt.wantFields, verr.Fields)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, sortedKeys(ne.Scores))
		})
	}
}

func TestUpdateEvaluation_Validate_scoreKeys(t *testing.T) {
	svc := newServiceMock()
	orig := Evaluation{ID: "e1", TaskID: "t1", GroupID: "g1", MaxPossibleScore: core.Float(20)}

	ue := UpdateEvaluation{Scores: map[string]NewScore{"s1": {TotalScore: 3}, "s1\t": {TotalScore: 4}}}
	err := ue.Validate(context.Background(), orig, svc)
	verr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want a validation error, got %v", err)
	assert.Equal(t, "scores.s1", verr.Fields[0].Field)

	ue = UpdateEvaluation{Scores: map[string]NewScore{" s3": {TotalScore: 3}}}
	require.NoError(t, ue.Validate(context.Background(), orig, svc))
	_, ok = ue.Scores["s3"]
	assert.True(t, ok)
}
