// Package ranking ranks students and groups by efficiency: the share of the max possible score
// they earned over their evaluations.
package ranking

import (
	"sort"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

// NoGroupID collects the scores of students without a (known) group.
const NoGroupID = "__none"

const (
	DefaultMinEvaluations   = 1
	DefaultFallbackMaxScore = 60
)

// Input is the data the rankings are computed over, usually a state snapshot.
type Input struct {
	Students    []student.Student
	Groups      []group.Group
	Tasks       []task.Task
	Evaluations []evaluation.Evaluation
}

type Options struct {
	MinEvaluations    int     // entities with fewer evaluations are not ranked; < 1 means 1
	FallbackMaxScore  float64 // used for evaluations without a max possible score
	TaskID            string  // only rank evaluations of this task
	IncludeUnassigned bool    // report the NoGroupID group
}

func DefaultOptions() Options {
	return Options{MinEvaluations: DefaultMinEvaluations, FallbackMaxScore: DefaultFallbackMaxScore}
}

func OptionsFromConfig(conf *core.Config) Options {
	opts := DefaultOptions()
	if conf.Ranking.MinEvaluations > 0 {
		opts.MinEvaluations = conf.Ranking.MinEvaluations
	}
	if conf.Ranking.FallbackMaxScore > 0 {
		opts.FallbackMaxScore = conf.Ranking.FallbackMaxScore
	}
	return opts
}

func (o Options) minEvaluations() int {
	if o.MinEvaluations < 1 {
		return 1
	}
	return o.MinEvaluations
}

// FallbackMax returns the max score of evaluations without a positive max possible score.
func (o Options) FallbackMax() float64 {
	if f := core.Finite(o.FallbackMaxScore); f > 0 {
		return f
	}
	return DefaultFallbackMaxScore
}

// Entry holds the aggregated metrics of a ranked student or group.
type Entry struct {
	EvalCount          int     `json:"evalCount"`
	TotalScore         float64 `json:"totalScore"`
	MaxScoreSum        float64 `json:"maxScoreSum"`
	Efficiency         float64 `json:"efficiency"` // percent, within [0, 100]
	LatestEvaluationMs int64   `json:"latestEvaluationMs"`
	Rank               int     `json:"rank"`
}

func (e *Entry) add(total, maxScore float64, latestMs int64) {
	e.TotalScore += total
	e.MaxScoreSum += maxScore
	if latestMs > e.LatestEvaluationMs {
		e.LatestEvaluationMs = latestMs
	}
}

func (e *Entry) computeEfficiency() {
	e.Efficiency = Efficiency(e.TotalScore, e.MaxScoreSum)
}

// Efficiency returns total/max as a percentage clamped to [0, 100]; 0 when max is 0.
func Efficiency(total, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	eff := core.Finite(total / maxScore * 100)
	if eff < 0 {
		return 0
	}
	if eff > 100 {
		return 100
	}
	return eff
}

// before reports whether `a` ranks above `b`, descending over
// (efficiency, evalCount, totalScore, maxScoreSum, latestEvaluationMs).
// decided is false when all five are equal.
func before(a, b Entry) (less, decided bool) {
	switch {
	case a.Efficiency != b.Efficiency:
		return a.Efficiency > b.Efficiency, true
	case a.EvalCount != b.EvalCount:
		return a.EvalCount > b.EvalCount, true
	case a.TotalScore != b.TotalScore:
		return a.TotalScore > b.TotalScore, true
	case a.MaxScoreSum != b.MaxScoreSum:
		return a.MaxScoreSum > b.MaxScoreSum, true
	case a.LatestEvaluationMs != b.LatestEvaluationMs:
		return a.LatestEvaluationMs > b.LatestEvaluationMs, true
	}
	return false, false
}

// Less orders two ranked entities; full ties fall back to name then id, ascending.
func Less(a, b Entry, aName, aID, bName, bID string) bool {
	if less, decided := before(a, b); decided {
		return less
	}
	if aName != bName {
		return aName < bName
	}
	return aID < bID
}

type StudentRank struct {
	Student student.Student `json:"student"`
	Entry
}

type GroupRank struct {
	Group group.Group `json:"group"`
	Entry
	ParticipantsCount int     `json:"participantsCount"`
	GroupSize         int     `json:"groupSize"`
	RemainingCount    int     `json:"remainingCount"`
	ParticipationRate float64 `json:"participationRate"` // percent
}

// Students ranks the students scored in `in.Evaluations`. Students without a record in `in.Students`
// are ranked under their id.
func Students(in Input, opts Options) []StudentRank {
	idx := NewIndex(in)
	fallback := opts.FallbackMax()

	entries := make(map[string]*StudentRank)
	for _, ev := range idx.evaluations(opts.TaskID) {
		maxScore := ev.MaxScore(fallback)
		latest := ev.LatestMillis(idx.TaskDate(ev.TaskID))
		for _, sid := range ev.StudentIDs() {
			sr, ok := entries[sid]
			if !ok {
				sr = &StudentRank{Student: idx.Student(sid)}
				entries[sid] = sr
			}
			sr.EvalCount++
			sr.add(ev.Scores[sid].Total(), maxScore, latest)
		}
	}

	minEvals := opts.minEvaluations()
	ranks := make([]StudentRank, 0, len(entries))
	for _, sr := range entries {
		if sr.EvalCount < minEvals {
			continue
		}
		sr.computeEfficiency()
		ranks = append(ranks, *sr)
	}
	sort.Slice(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		return Less(a.Entry, b.Entry, a.Student.Name, a.Student.ID, b.Student.Name, b.Student.ID)
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}

type groupAcc struct {
	rank         GroupRank
	evals        map[string]struct{}
	participants map[string]struct{}
}

// Groups ranks the groups by the scores of their current members.
func Groups(in Input, opts Options) []GroupRank {
	idx := NewIndex(in)
	fallback := opts.FallbackMax()

	accs := make(map[string]*groupAcc)
	for _, ev := range idx.evaluations(opts.TaskID) {
		maxScore := ev.MaxScore(fallback)
		latest := ev.LatestMillis(idx.TaskDate(ev.TaskID))
		for _, sid := range ev.StudentIDs() {
			gid := idx.GroupOf(sid)
			acc, ok := accs[gid]
			if !ok {
				acc = &groupAcc{
					rank:         GroupRank{Group: idx.Group(gid)},
					evals:        make(map[string]struct{}),
					participants: make(map[string]struct{}),
				}
				accs[gid] = acc
			}
			acc.evals[ev.ID] = struct{}{}
			acc.participants[sid] = struct{}{}
			acc.rank.add(ev.Scores[sid].Total(), maxScore, latest)
		}
	}

	minEvals := opts.minEvaluations()
	ranks := make([]GroupRank, 0, len(accs))
	for gid, acc := range accs {
		if gid == NoGroupID && !opts.IncludeUnassigned {
			continue
		}
		gr := acc.rank
		gr.EvalCount = len(acc.evals)
		if gr.EvalCount < minEvals {
			continue
		}
		gr.computeEfficiency()
		gr.GroupSize = idx.GroupSize(gid)
		gr.ParticipantsCount = len(acc.participants)
		gr.RemainingCount = remaining(gr.GroupSize, gr.ParticipantsCount)
		gr.ParticipationRate = rate(gr.ParticipantsCount, gr.GroupSize)
		ranks = append(ranks, gr)
	}
	sort.Slice(ranks, func(i, j int) bool {
		a, b := ranks[i], ranks[j]
		return Less(a.Entry, b.Entry, a.Group.Name, a.Group.ID, b.Group.Name, b.Group.ID)
	})
	for i := range ranks {
		ranks[i].Rank = i + 1
	}
	return ranks
}

func remaining(size, participants int) int {
	if r := size - participants; r > 0 {
		return r
	}
	return 0
}

func rate(participants, size int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(participants) / float64(size) * 100
}
