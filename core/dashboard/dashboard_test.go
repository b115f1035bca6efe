package dashboard

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

func TestGradeFor(t *testing.T) {
	tests := []struct {
		eff  float64
		want Grade
	}{
		{100, GradeAPlus}, {80, GradeAPlus}, {79.99, GradeA}, {70, GradeA}, {65, GradeAMinus},
		{50, GradeB}, {45, GradeC}, {33, GradeD}, {32.9, GradeF}, {0, GradeF},
	}
	for _, tt := range tests {
		if got := GradeFor(tt.eff); got != tt.want {
			t.Errorf("GradeFor(%v) = %v; want %v", tt.eff, got, tt.want)
		}
	}
}

func input() ranking.Input {
	return ranking.Input{
		Students: []student.Student{
			{ID: "s1", Name: "Rahim", Gender: "male", GroupID: "g1", AcademicGroup: "Science", Role: "leader"},
			{ID: "s2", Name: "Nadia", Gender: "Female", GroupID: "g1", AcademicGroup: "Science"},
			{ID: "s3", Name: "Sadia", Gender: "female", AcademicGroup: "Arts"},
		},
		Groups: []group.Group{{ID: "g1", Name: "Alpha"}},
		Tasks: []task.Task{
			{ID: "t1", Name: "Essay", Date: core.DateFrom(2024, time.March, 1)},
			{ID: "t2", Name: "Quiz", Date: core.DateFrom(2024, time.March, 10)},
			{ID: "t3", Name: "Project", Date: core.DateFrom(2024, time.April, 1)},
			{ID: "t4", Name: "Viva", Date: core.DateFrom(2024, time.April, 1), Status: task.StatusCompleted},
		},
		Evaluations: []evaluation.Evaluation{
			{ID: "e1", TaskID: "t1", GroupID: "g1", MaxPossibleScore: 20, Scores: map[string]evaluation.Score{
				"s1": {TotalScore: 18},
				"s2": {TotalScore: 9},
			}},
			{ID: "e2", TaskID: "t1", GroupID: "g2", MaxPossibleScore: 20, Scores: map[string]evaluation.Score{
				"s3": {TotalScore: 14},
			}},
		},
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(input(), Options{
		Ranking:  ranking.DefaultOptions(),
		Schedule: task.DefaultSchedule,
		TopN:     2,
		Now:      time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, Totals{Students: 3, Groups: 1, Tasks: 4, Evaluations: 2}, sum.Totals)
	assert.Equal(t, StatusCounts{Upcoming: 1, Ongoing: 1, Completed: 2}, sum.TaskStatus)
	assert.Equal(t, 3, sum.EvaluatedStudents)
	assert.Equal(t, 1, sum.UnassignedStudents)
	assert.InDelta(t, (90.0+45+70)/3, sum.AverageEfficiency, 1e-9)
	assert.Equal(t, []Count{{Label: "female", Count: 2}, {Label: "male", Count: 1}}, sum.GenderBreakdown)
	assert.Equal(t, []Count{{Label: "Science", Count: 2}, {Label: "Arts", Count: 1}}, sum.AcademicGroupBreakdown)
	assert.Equal(t, []Count{{Label: "unknown", Count: 2}, {Label: "leader", Count: 1}}, sum.RoleBreakdown)

	require.Len(t, sum.TopStudents, 2)
	assert.Equal(t, "s1", sum.TopStudents[0].Student.ID)
	assert.Equal(t, "s3", sum.TopStudents[1].Student.ID)
	require.Len(t, sum.TopGroups, 1)
	assert.Equal(t, "g1", sum.TopGroups[0].Group.ID)

	grades := make(map[Grade]int)
	for _, gc := range sum.GradeDistribution {
		grades[gc.Grade] = gc.Count
	}
	assert.Len(t, sum.GradeDistribution, len(Grades))
	assert.Equal(t, map[Grade]int{GradeAPlus: 1, GradeA: 1, GradeAMinus: 0, GradeB: 0, GradeC: 1, GradeD: 0, GradeF: 0}, grades)
}

func TestTaskStatistics(t *testing.T) {
	stats, ok := TaskStatistics(input(), "t1", ranking.DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "Essay", stats.TaskName)
	assert.Equal(t, 2, stats.EvaluatedGroups)
	assert.Equal(t, 3, stats.Participants)
	assert.Equal(t, 18.0, stats.HighestTotal)
	assert.Equal(t, 9.0, stats.LowestTotal)
	assert.InDelta(t, 41.0/3, stats.AverageTotal, 1e-9)

	stats, ok = TaskStatistics(input(), "t2", ranking.DefaultOptions())
	require.True(t, ok)
	assert.Zero(t, stats.Participants)
	assert.Zero(t, stats.AverageEfficiency)

	_, ok = TaskStatistics(input(), "nope", ranking.DefaultOptions())
	assert.False(t, ok)
}

func TestTaskStatistics_fallbackMax(t *testing.T) {
	in := ranking.Input{
		Tasks: []task.Task{{ID: "t1", Name: "Quiz"}},
		Evaluations: []evaluation.Evaluation{
			{ID: "e1", TaskID: "t1", GroupID: "g1", Scores: map[string]evaluation.Score{"s1": {TotalScore: core.Float(30)}}},
		},
	}
	opts := ranking.DefaultOptions()
	opts.FallbackMaxScore = math.Inf(1)

	stats, ok := TaskStatistics(in, "t1", opts)
	require.True(t, ok)
	assert.InDelta(t, 50.0, stats.AverageEfficiency, 1e-9) // 30 / 60
}
