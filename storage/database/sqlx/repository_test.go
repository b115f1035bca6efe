package sqlxrepos

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

func TestTrapNoRowsErr(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: student.ErrNotFound},
		{name: "wrapped no rows", err: errors.Wrap(sql.ErrNoRows, "get"), want: student.ErrNotFound},
		{name: "other", err: other, want: other},
		{name: "nil", err: nil, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := trapNoRowsErr(tc.err, student.ErrNotFound); got != tc.want {
				t.Errorf("trapNoRowsErr() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	if got, want := contains(`50%_a\b`), `%50\%\_a\\b%`; got != want {
		t.Errorf("contains() = %v; want %v", got, want)
	}
}

func TestStudentQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   student.QueryFilter
		ordering []core.DBOrdering
		wantSQL  []string
		wantArgs []interface{}
	}{
		{
			name:    "default ordering",
			wantSQL: []string{"FROM students ORDER BY roll ASC, id ASC"},
		},
		{
			name:     "search and group",
			filter:   student.QueryFilter{Search: "ra", GroupID: "g1"},
			wantSQL:  []string{"WHERE (LOWER(name) LIKE ? OR LOWER(roll) LIKE ?) AND group_id = ?"},
			wantArgs: []interface{}{"%ra%", "%ra%", "g1"},
		},
		{
			name:     "unassigned ordered by name desc",
			filter:   student.QueryFilter{Unassigned: true},
			ordering: []core.DBOrdering{{Field: "name"}, {Field: "bogus", Ascending: true}},
			wantSQL:  []string{"WHERE COALESCE(group_id, '') = ''", "ORDER BY name DESC, id ASC"},
		},
		{
			name:     "created at",
			ordering: []core.DBOrdering{{Field: "createdAt", Ascending: true}},
			wantSQL:  []string{"ORDER BY created_at ASC, id ASC"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, args := studentQuery(tc.filter, tc.ordering)
			for _, want := range tc.wantSQL {
				if !strings.Contains(q, want) {
					t.Errorf("studentQuery() = %q; want it to contain %q", q, want)
				}
			}
			assert.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestEvaluationQuery(t *testing.T) {
	q, args := evaluationQuery(evaluation.QueryFilter{TaskID: "t1", StudentID: "s1"})
	assert.Contains(t, q, "WHERE task_id = ? AND jsonb_exists(scores, ?)")
	assert.Equal(t, []interface{}{"t1", "s1"}, args)

	q, args = evaluationQuery(evaluation.QueryFilter{})
	assert.NotContains(t, q, "WHERE")
	assert.Empty(t, args)
}

func TestTaskQuery(t *testing.T) {
	q, args := taskQuery(task.QueryFilter{Status: task.StatusOngoing})
	assert.Contains(t, q, "WHERE status = ?")
	assert.Contains(t, q, "ORDER BY date ASC NULLS FIRST, id ASC")
	assert.Equal(t, []interface{}{"ongoing"}, args)
}

func TestGroupQuery(t *testing.T) {
	q, args := groupQuery(group.QueryFilter{Search: "alp"})
	assert.Contains(t, q, "WHERE LOWER(name) LIKE ? ORDER BY name ASC, id ASC")
	assert.Equal(t, []interface{}{"%alp%"}, args)
}

func TestRows(t *testing.T) {
	created := core.TimestampFrom(time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC))

	t.Run("student", func(t *testing.T) {
		std := student.Student{ID: "s1", Name: "Rahim", Roll: "101", GroupID: "g1", CreatedAt: created}
		row := newStudentRow(std)
		assert.False(t, row.Gender.Valid)
		assert.True(t, row.GroupID.Valid)
		assert.False(t, row.UpdatedAt.Valid)
		assert.Equal(t, std, row.student())
	})

	t.Run("task", func(t *testing.T) {
		tsk := task.Task{
			ID:                "t1",
			Name:              "Essay",
			Date:              core.DateFrom(2024, time.March, 5),
			MaxScoreBreakdown: task.MaxScoreBreakdown{Task: 10, Team: 5},
			CreatedAt:         created,
		}
		row, err := newTaskRow(tsk)
		require.NoError(t, err)
		assert.True(t, row.DateOnly)
		assert.False(t, row.Status.Valid)
		assert.Equal(t, tsk, row.task())
	})

	t.Run("evaluation", func(t *testing.T) {
		ev := evaluation.Evaluation{
			ID:               "e1",
			TaskID:           "t1",
			GroupID:          "g1",
			MaxPossibleScore: 20,
			Scores:           map[string]evaluation.Score{"s1": {TaskScore: 10, TotalScore: 12, Comments: "ok"}},
			TaskDate:         core.DateFrom(2024, time.March, 5),
			CreatedAt:        created,
		}
		row, err := newEvaluationRow(ev)
		require.NoError(t, err)
		got, err := row.evaluation()
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	})

	t.Run("evaluation without scores", func(t *testing.T) {
		row, err := newEvaluationRow(evaluation.Evaluation{ID: "e2"})
		require.NoError(t, err)
		assert.JSONEq(t, "{}", string(row.Scores.JSON))
	})
}
