// Package testutil holds fixtures shared by the tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
	"github.com/trezcool/evalboard/storage/database/inmem"
)

// NewRepositories returns in-memory repositories over `db`.
func NewRepositories(db *inmemdb.DB) state.Repositories {
	return state.Repositories{
		Students:    inmemdb.NewStudentRepository(db),
		Groups:      inmemdb.NewGroupRepository(db),
		Tasks:       inmemdb.NewTaskRepository(db),
		Evaluations: inmemdb.NewEvaluationRepository(db),
	}
}

func stamp(createdAt []time.Time) core.Timestamp {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	return core.TimestampFrom(tstamp)
}

func CreateGroup(t *testing.T, repo group.Repository, id, name string, createdAt ...time.Time) group.Group {
	ts := stamp(createdAt)
	grp, err := repo.CreateGroup(context.Background(), group.Group{ID: id, Name: name, CreatedAt: ts, UpdatedAt: ts})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return grp
}

func CreateStudent(t *testing.T, repo student.Repository, id, name, roll, groupID string, createdAt ...time.Time) student.Student {
	ts := stamp(createdAt)
	std, err := repo.CreateStudent(context.Background(), student.Student{
		ID:        id,
		Name:      name,
		Roll:      roll,
		GroupID:   groupID,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateTask(t *testing.T, repo task.Repository, id, name string, date core.Timestamp, maxScore float64) task.Task {
	ts := stamp(nil)
	tsk, err := repo.CreateTask(context.Background(), task.Task{
		ID:        id,
		Name:      name,
		Date:      date,
		MaxScore:  core.Float(maxScore),
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

// CreateEvaluation stores an evaluation with the given total score per student id.
func CreateEvaluation(
	t *testing.T,
	repo evaluation.Repository,
	id, taskID, groupID string,
	maxScore float64,
	totals map[string]float64,
	createdAt ...time.Time,
) evaluation.Evaluation {
	ts := stamp(createdAt)
	scores := make(map[string]evaluation.Score, len(totals))
	for sid, total := range totals {
		scores[sid] = evaluation.Score{TotalScore: core.Float(total)}
	}
	ev, err := repo.CreateEvaluation(context.Background(), evaluation.Evaluation{
		ID:               id,
		TaskID:           taskID,
		GroupID:          groupID,
		MaxPossibleScore: core.Float(maxScore),
		Scores:           scores,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	})
	if err != nil {
		t.Fatalf("CreateEvaluation() failed: %v", err)
	}
	return ev
}
