package ranking

import (
	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

// UnassignedGroupName is the display name of the NoGroupID group.
const UnassignedGroupName = "Unassigned"

// Index gives id lookups over an Input.
type Index struct {
	in         Input
	students   map[string]student.Student
	groups     map[string]group.Group
	tasks      map[string]task.Task
	groupSizes map[string]int
}

func NewIndex(in Input) *Index {
	idx := &Index{
		in:         in,
		students:   make(map[string]student.Student, len(in.Students)),
		groups:     make(map[string]group.Group, len(in.Groups)),
		tasks:      make(map[string]task.Task, len(in.Tasks)),
		groupSizes: make(map[string]int),
	}
	for _, g := range in.Groups {
		idx.groups[g.ID] = g
	}
	for _, t := range in.Tasks {
		idx.tasks[t.ID] = t
	}
	for _, s := range in.Students {
		idx.students[s.ID] = s
		idx.groupSizes[idx.groupOf(s)]++
	}
	return idx
}

// Student returns the student with `id`, or a placeholder named after the id.
func (idx *Index) Student(id string) student.Student {
	if s, ok := idx.students[id]; ok {
		return s
	}
	return student.Student{ID: id, Name: id}
}

func (idx *Index) HasStudent(id string) bool {
	_, ok := idx.students[id]
	return ok
}

// Group returns the group with `id`, or a placeholder named after the id.
func (idx *Index) Group(id string) group.Group {
	if g, ok := idx.groups[id]; ok {
		return g
	}
	if id == NoGroupID {
		return group.Group{ID: NoGroupID, Name: UnassignedGroupName}
	}
	return group.Group{ID: id, Name: id}
}

func (idx *Index) HasGroup(id string) bool {
	_, ok := idx.groups[id]
	return ok
}

func (idx *Index) Task(id string) (task.Task, bool) {
	t, ok := idx.tasks[id]
	return t, ok
}

// TaskName returns the task's name, or its id when unknown.
func (idx *Index) TaskName(id string) string {
	if t, ok := idx.tasks[id]; ok && t.Name != "" {
		return t.Name
	}
	return id
}

// TaskDate returns the date of the task with `id`, unset when unknown.
func (idx *Index) TaskDate(id string) core.Timestamp {
	return idx.tasks[id].Date
}

// GroupOf maps a student to its group id; NoGroupID when unassigned or unknown.
func (idx *Index) GroupOf(studentID string) string {
	s, ok := idx.students[studentID]
	if !ok {
		return NoGroupID
	}
	return idx.groupOf(s)
}

func (idx *Index) groupOf(s student.Student) string {
	if !s.HasGroup() {
		return NoGroupID
	}
	if _, ok := idx.groups[s.GroupID]; !ok {
		return NoGroupID
	}
	return s.GroupID
}

// GroupSize returns the number of students in the group.
func (idx *Index) GroupSize(groupID string) int {
	return idx.groupSizes[groupID]
}

// Members returns the students of the group, in input order.
func (idx *Index) Members(groupID string) []student.Student {
	var members []student.Student
	for _, s := range idx.in.Students {
		if idx.groupOf(s) == groupID {
			members = append(members, s)
		}
	}
	return members
}

func (idx *Index) evaluations(taskID string) []evaluation.Evaluation {
	if taskID == "" {
		return idx.in.Evaluations
	}
	var evals []evaluation.Evaluation
	for _, ev := range idx.in.Evaluations {
		if ev.TaskID == taskID {
			evals = append(evals, ev)
		}
	}
	return evals
}
