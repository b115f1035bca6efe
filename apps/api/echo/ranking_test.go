package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/tests"
)

// seed stores two groups with three students, one task and the evaluation of g2.
func seed(t *testing.T, app testApp) {
	testutil.CreateGroup(t, app.repos.Groups, "g1", "Alpha")
	testutil.CreateGroup(t, app.repos.Groups, "g2", "Beta")
	testutil.CreateStudent(t, app.repos.Students, "s1", "Rahim", "101", "g1")
	testutil.CreateStudent(t, app.repos.Students, "s2", "Karim", "102", "g1")
	testutil.CreateStudent(t, app.repos.Students, "s3", "Jamal", "103", "g2")
	testutil.CreateTask(t, app.repos.Tasks, "t1", "Task 1", core.DateFrom(2024, time.March, 10), 100)
	testutil.CreateEvaluation(t, app.repos.Evaluations, "e2", "t1", "g2", 100, map[string]float64{"s3": 80})
	app.refresh(t)
}

func Test_evaluationApi_create(t *testing.T) {
	app := setup(t)
	seed(t, app)

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing key", method: http.MethodPost, path: "/v1/evaluations", body: []byte(`{}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingKey),
		},
		{
			name: "unknown task", method: http.MethodPost, path: "/v1/evaluations", key: testAPIKey,
			body:     []byte(`{"taskId": "nope", "groupId": "g1", "scores": {"s1": {"totalScore": 10}}}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"taskId": "task not found"}`),
		},
		{
			name: "already evaluated", method: http.MethodPost, path: "/v1/evaluations", key: testAPIKey,
			body:     []byte(`{"taskId": "t1", "groupId": "g2", "scores": {"s3": {"totalScore": 10}}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"groupId": "this group has already been evaluated for this task"}`),
		},
		{
			name: "score above max", method: http.MethodPost, path: "/v1/evaluations", key: testAPIKey,
			body:     []byte(`{"taskId": "t1", "groupId": "g3", "scores": {"s1": {"totalScore": 120}}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"scores.s1": "total score 120 exceeds the max score 100"}`),
		},
	})

	rec := app.do(httpTest{
		method: http.MethodPost, path: "/v1/evaluations", key: testAPIKey,
		body: []byte(`{"taskId": "t1", "groupId": "g1", "scores": {"s1": {"totalScore": 90}, "s2": {"taskScore": 40, "teamScore": 20}}}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ev evaluation.Evaluation
	unmarshal(t, rec, &ev)
	assert.Equal(t, 100.0, ev.MaxPossibleScore.Float64())
	assert.Equal(t, []string{"s1", "s2"}, ev.StudentIDs())
	assert.Equal(t, 60.0, ev.Scores["s2"].Total())
	assert.Len(t, app.store.Snapshot().Evaluations, 2)
}

func Test_rankingApi(t *testing.T) {
	app := setup(t)
	seed(t, app)
	testutil.CreateEvaluation(t, app.repos.Evaluations, "e1", "t1", "g1", 100, map[string]float64{"s1": 90, "s2": 60})
	app.refresh(t)

	t.Run("students", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/rankings/students"})
		require.Equal(t, http.StatusOK, rec.Code)

		var ranks []ranking.StudentRank
		unmarshal(t, rec, &ranks)
		require.Len(t, ranks, 3)
		tests := []struct {
			id   string
			rank int
			eff  float64
		}{{"s1", 1, 90}, {"s3", 2, 80}, {"s2", 3, 60}}
		for i, tt := range tests {
			if ranks[i].Student.ID != tt.id || ranks[i].Rank != tt.rank || ranks[i].Efficiency != tt.eff {
				t.Errorf("ranks[%d] = (%v, %v, %v); want (%v, %v, %v)",
					i, ranks[i].Student.ID, ranks[i].Rank, ranks[i].Efficiency, tt.id, tt.rank, tt.eff)
			}
		}
	})

	t.Run("groups", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/rankings/groups"})
		require.Equal(t, http.StatusOK, rec.Code)

		var ranks []ranking.GroupRank
		unmarshal(t, rec, &ranks)
		require.Len(t, ranks, 2)
		assert.Equal(t, "g2", ranks[0].Group.ID)
		assert.Equal(t, 80.0, ranks[0].Efficiency)
		assert.Equal(t, "g1", ranks[1].Group.ID)
		assert.Equal(t, 75.0, ranks[1].Efficiency)
		assert.Equal(t, 2, ranks[1].ParticipantsCount)
		assert.Equal(t, 100.0, ranks[1].ParticipationRate)
	})

	runHTTPTests(t, app, []httpTest{
		{name: "other task", path: "/v1/rankings/students?task=t2", wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "min evaluations", path: "/v1/rankings/groups?min=2", wantCode: http.StatusOK, wantData: marchallList(t)},
		{name: "unknown student", path: "/v1/students/ghost/history", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "unknown group", path: "/v1/groups/ghost/details", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "unassigned group", path: "/v1/groups/" + ranking.NoGroupID + "/details", wantCode: http.StatusOK},
		{name: "unknown task stats", path: "/v1/tasks/ghost/stats", wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
	})

	t.Run("history", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/students/s1/history"})
		require.Equal(t, http.StatusOK, rec.Code)

		var hist ranking.StudentHistory
		unmarshal(t, rec, &hist)
		assert.Equal(t, "Rahim", hist.Student.Name)
		assert.Equal(t, 1, hist.Rank)
		require.Len(t, hist.Lines, 1)
		assert.Equal(t, "Task 1", hist.Lines[0].TaskName)
		assert.Equal(t, "Alpha", hist.Lines[0].GroupName)
		assert.Equal(t, 90.0, hist.Lines[0].Efficiency)
	})

	t.Run("group details", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/groups/g1/details"})
		require.Equal(t, http.StatusOK, rec.Code)

		var det ranking.GroupDetails
		unmarshal(t, rec, &det)
		assert.Equal(t, 2, det.Group.Rank)
		assert.Len(t, det.Members, 2)
		require.Len(t, det.Participation, 1)
		assert.Equal(t, 100.0, det.Participation[0].Rate)
	})

	t.Run("task stats", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/tasks/t1/stats"})
		require.Equal(t, http.StatusOK, rec.Code)

		var stats dashboard.TaskStats
		unmarshal(t, rec, &stats)
		assert.Equal(t, 2, stats.EvaluatedGroups)
		assert.Equal(t, 3, stats.Participants)
		assert.Equal(t, 90.0, stats.HighestTotal)
		assert.Equal(t, 60.0, stats.LowestTotal)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := app.do(httpTest{path: "/v1/dashboard"})
		require.Equal(t, http.StatusOK, rec.Code)

		var sum dashboard.Summary
		unmarshal(t, rec, &sum)
		assert.Equal(t, dashboard.Totals{Students: 3, Groups: 2, Tasks: 1, Evaluations: 2}, sum.Totals)
		assert.Equal(t, 3, sum.EvaluatedStudents)
		assert.Equal(t, 1, sum.TaskStatus.Completed)
		require.NotEmpty(t, sum.TopStudents)
		assert.Equal(t, "s1", sum.TopStudents[0].Student.ID)
	})
}
