package ranking

import (
	"sort"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/student"
)

// HistoryLine is one student's score in one evaluation.
type HistoryLine struct {
	EvaluationID    string  `json:"evaluationId"`
	TaskID          string  `json:"taskId"`
	TaskName        string  `json:"taskName"`
	GroupID         string  `json:"groupId"`
	GroupName       string  `json:"groupName"`
	TaskScore       float64 `json:"taskScore"`
	TeamScore       float64 `json:"teamScore"`
	MCQScore        float64 `json:"mcqScore"`
	AdditionalScore float64 `json:"additionalScore"`
	Total           float64 `json:"total"`
	MaxScore        float64 `json:"maxScore"`
	Efficiency      float64 `json:"efficiency"`
	Comments        string  `json:"comments,omitempty"`
	EvaluatedAtMs   int64   `json:"evaluatedAtMs"`
}

type StudentHistory struct {
	Student student.Student `json:"student"`
	Entry                   // zero Rank when the student is not ranked
	Lines   []HistoryLine   `json:"lines"`
}

// History returns the score lines of a student, newest first.
// ok is false when the student is neither known nor scored.
func History(in Input, studentID string, opts Options) (hist StudentHistory, ok bool) {
	idx := NewIndex(in)
	fallback := opts.FallbackMax()

	hist.Student = idx.Student(studentID)
	hist.Lines = []HistoryLine{}
	for _, ev := range idx.evaluations(opts.TaskID) {
		sc, scored := ev.Scores[studentID]
		if !scored {
			continue
		}
		maxScore := ev.MaxScore(fallback)
		total := sc.Total()
		hist.Lines = append(hist.Lines, HistoryLine{
			EvaluationID:    ev.ID,
			TaskID:          ev.TaskID,
			TaskName:        idx.TaskName(ev.TaskID),
			GroupID:         ev.GroupID,
			GroupName:       idx.Group(ev.GroupID).Name,
			TaskScore:       sc.TaskScore.Float64(),
			TeamScore:       sc.TeamScore.Float64(),
			MCQScore:        sc.MCQScore.Float64(),
			AdditionalScore: sc.AdditionalScore.Float64(),
			Total:           total,
			MaxScore:        maxScore,
			Efficiency:      Efficiency(total, maxScore),
			Comments:        sc.Comments,
			EvaluatedAtMs:   ev.LatestMillis(idx.TaskDate(ev.TaskID)),
		})
	}
	if len(hist.Lines) == 0 && !idx.HasStudent(studentID) {
		return hist, false
	}
	sort.SliceStable(hist.Lines, func(i, j int) bool {
		a, b := hist.Lines[i], hist.Lines[j]
		if a.EvaluatedAtMs != b.EvaluatedAtMs {
			return a.EvaluatedAtMs > b.EvaluatedAtMs
		}
		return a.EvaluationID < b.EvaluationID
	})

	for _, sr := range Students(in, opts) {
		if sr.Student.ID == studentID {
			hist.Entry = sr.Entry
			break
		}
	}
	return hist, true
}

// Participation tells how many members of a group were scored in one evaluation.
type Participation struct {
	EvaluationID string  `json:"evaluationId"`
	TaskID       string  `json:"taskId"`
	TaskName     string  `json:"taskName"`
	Participants int     `json:"participants"`
	GroupSize    int     `json:"groupSize"`
	Rate         float64 `json:"rate"` // percent
}

type Member struct {
	Student student.Student `json:"student"`
	Entry                   // zero Rank when the student is not ranked
}

type GroupDetails struct {
	Group         GroupRank       `json:"group"` // zero Rank when the group is not ranked
	Members       []Member        `json:"members"`
	Participation []Participation `json:"participation"`
}

// Details returns the rank of a group along with its members' ranks and its per-evaluation
// participation. ok is false when the group is unknown.
func Details(in Input, groupID string, opts Options) (det GroupDetails, ok bool) {
	idx := NewIndex(in)
	if !idx.HasGroup(groupID) && groupID != NoGroupID {
		return det, false
	}

	opts.IncludeUnassigned = groupID == NoGroupID
	det.Group = GroupRank{Group: idx.Group(groupID), GroupSize: idx.GroupSize(groupID)}
	det.Group.RemainingCount = det.Group.GroupSize
	for _, gr := range Groups(in, opts) {
		if gr.Group.ID == groupID {
			det.Group = gr
			break
		}
	}

	studentRanks := make(map[string]Entry)
	for _, sr := range Students(in, opts) {
		studentRanks[sr.Student.ID] = sr.Entry
	}
	det.Members = []Member{}
	for _, s := range idx.Members(groupID) {
		det.Members = append(det.Members, Member{Student: s, Entry: studentRanks[s.ID]})
	}
	sort.SliceStable(det.Members, func(i, j int) bool {
		a, b := det.Members[i], det.Members[j]
		if (a.Rank == 0) != (b.Rank == 0) {
			return a.Rank != 0
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Student.Name < b.Student.Name
	})

	det.Participation = participation(idx, groupID, idx.evaluations(opts.TaskID))
	return det, true
}

func participation(idx *Index, groupID string, evals []evaluation.Evaluation) []Participation {
	size := idx.GroupSize(groupID)
	parts := []Participation{}
	for _, ev := range evals {
		var count int
		for sid := range ev.Scores {
			if idx.GroupOf(sid) == groupID {
				count++
			}
		}
		if count == 0 {
			continue
		}
		parts = append(parts, Participation{
			EvaluationID: ev.ID,
			TaskID:       ev.TaskID,
			TaskName:     idx.TaskName(ev.TaskID),
			Participants: count,
			GroupSize:    size,
			Rate:         rate(count, size),
		})
	}
	return parts
}

// TopStudents returns at most n ranks.
func TopStudents(ranks []StudentRank, n int) []StudentRank {
	if n >= 0 && n < len(ranks) {
		return ranks[:n]
	}
	return ranks
}

// TopGroups returns at most n ranks.
func TopGroups(ranks []GroupRank, n int) []GroupRank {
	if n >= 0 && n < len(ranks) {
		return ranks[:n]
	}
	return ranks
}
