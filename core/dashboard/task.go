package dashboard

import (
	"github.com/trezcool/evalboard/core/ranking"
)

type TaskStats struct {
	TaskID            string       `json:"taskId"`
	TaskName          string       `json:"taskName"`
	EvaluatedGroups   int          `json:"evaluatedGroups"`
	Participants      int          `json:"participants"`
	AverageTotal      float64      `json:"averageTotal"`
	HighestTotal      float64      `json:"highestTotal"`
	LowestTotal       float64      `json:"lowestTotal"`
	AverageEfficiency float64      `json:"averageEfficiency"`
	GradeDistribution []GradeCount `json:"gradeDistribution"`
}

// TaskStatistics computes the score statistics of one task. ok is false when the task is unknown.
func TaskStatistics(in ranking.Input, taskID string, opts ranking.Options) (stats TaskStats, ok bool) {
	idx := ranking.NewIndex(in)
	tsk, ok := idx.Task(taskID)
	if !ok {
		return stats, false
	}
	stats.TaskID = tsk.ID
	stats.TaskName = tsk.Name

	groups := make(map[string]struct{})
	var totals, effs []float64
	for _, ev := range in.Evaluations {
		if ev.TaskID != taskID {
			continue
		}
		groups[ev.GroupID] = struct{}{}
		maxScore := ev.MaxScore(opts.FallbackMax())
		for _, sid := range ev.StudentIDs() {
			total := ev.Scores[sid].Total()
			totals = append(totals, total)
			effs = append(effs, ranking.Efficiency(total, maxScore))
		}
	}
	stats.EvaluatedGroups = len(groups)
	stats.Participants = len(totals)
	stats.GradeDistribution = distribution(effs)
	if len(totals) == 0 {
		return stats, true
	}

	stats.HighestTotal, stats.LowestTotal = totals[0], totals[0]
	for _, t := range totals {
		if t > stats.HighestTotal {
			stats.HighestTotal = t
		}
		if t < stats.LowestTotal {
			stats.LowestTotal = t
		}
	}
	stats.AverageTotal = average(totals)
	stats.AverageEfficiency = average(effs)
	return stats, true
}
