// Package dashboard computes the statistics shown on the dashboard.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/task"
)

const DefaultTopN = 5

// unknownLabel is the breakdown key of students without a value.
const unknownLabel = "unknown"

type Totals struct {
	Students    int `json:"students"`
	Groups      int `json:"groups"`
	Tasks       int `json:"tasks"`
	Evaluations int `json:"evaluations"`
}

type StatusCounts struct {
	Upcoming  int `json:"upcoming"`
	Ongoing   int `json:"ongoing"`
	Completed int `json:"completed"`
}

// Count is a labelled count of a breakdown.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Summary struct {
	Totals                 Totals                `json:"totals"`
	TaskStatus             StatusCounts          `json:"taskStatus"`
	EvaluatedStudents      int                   `json:"evaluatedStudents"`
	UnassignedStudents     int                   `json:"unassignedStudents"`
	AverageEfficiency      float64               `json:"averageEfficiency"`
	GenderBreakdown        []Count               `json:"genderBreakdown"`
	AcademicGroupBreakdown []Count               `json:"academicGroupBreakdown"`
	RoleBreakdown          []Count               `json:"roleBreakdown"`
	TopStudents            []ranking.StudentRank `json:"topStudents"`
	TopGroups              []ranking.GroupRank   `json:"topGroups"`
	GradeDistribution      []GradeCount          `json:"gradeDistribution"`
}

type Options struct {
	Ranking  ranking.Options
	Schedule task.Schedule
	TopN     int
	Now      time.Time
}

func (o Options) topN() int {
	if o.TopN <= 0 {
		return DefaultTopN
	}
	return o.TopN
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Summarize computes the dashboard summary of `in`.
func Summarize(in ranking.Input, opts Options) Summary {
	sum := Summary{
		Totals: Totals{
			Students:    len(in.Students),
			Groups:      len(in.Groups),
			Tasks:       len(in.Tasks),
			Evaluations: len(in.Evaluations),
		},
	}

	now := opts.now()
	for _, t := range in.Tasks {
		switch t.ResolveStatus(now, opts.Schedule) {
		case task.StatusOngoing:
			sum.TaskStatus.Ongoing++
		case task.StatusCompleted:
			sum.TaskStatus.Completed++
		default:
			sum.TaskStatus.Upcoming++
		}
	}

	idx := ranking.NewIndex(in)
	genders := make(map[string]int)
	academicGroups := make(map[string]int)
	roles := make(map[string]int)
	for _, s := range in.Students {
		if idx.GroupOf(s.ID) == ranking.NoGroupID {
			sum.UnassignedStudents++
		}
		genders[label(strings.ToLower(s.Gender))]++
		academicGroups[label(s.AcademicGroup)]++
		roles[label(s.Role)]++
	}
	sum.GenderBreakdown = counts(genders)
	sum.AcademicGroupBreakdown = counts(academicGroups)
	sum.RoleBreakdown = counts(roles)

	studentRanks := ranking.Students(in, opts.Ranking)
	effs := make([]float64, 0, len(studentRanks))
	for _, sr := range studentRanks {
		effs = append(effs, sr.Efficiency)
	}
	sum.EvaluatedStudents = len(studentRanks)
	sum.AverageEfficiency = average(effs)
	sum.GradeDistribution = distribution(effs)
	sum.TopStudents = ranking.TopStudents(studentRanks, opts.topN())
	sum.TopGroups = ranking.TopGroups(ranking.Groups(in, opts.Ranking), opts.topN())
	return sum
}

func label(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknownLabel
	}
	return s
}

// counts sorts a breakdown by count, largest first.
func counts(m map[string]int) []Count {
	res := make([]Count, 0, len(m))
	for l, c := range m {
		res = append(res, Count{Label: l, Count: c})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		return res[i].Label < res[j].Label
	})
	return res
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
