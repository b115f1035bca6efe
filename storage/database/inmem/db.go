// Package inmemdb implements the repositories in memory. Used in development and tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

type (
	DB struct {
		student    *studentTable
		group      *groupTable
		task       *taskTable
		evaluation *evaluationTable
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	groupTable struct {
		mutex sync.RWMutex
		table map[string]*group.Group
	}

	taskTable struct {
		mutex sync.RWMutex
		table map[string]*task.Task
	}

	evaluationTable struct {
		mutex sync.RWMutex
		table map[string]*evaluation.Evaluation
	}
)

func Open() *DB {
	return &DB{
		student:    &studentTable{table: make(map[string]*student.Student)},
		group:      &groupTable{table: make(map[string]*group.Group)},
		task:       &taskTable{table: make(map[string]*task.Task)},
		evaluation: &evaluationTable{table: make(map[string]*evaluation.Evaluation)},
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.student.mutex.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.mutex.Unlock()

	db.group.mutex.Lock()
	db.group.table = make(map[string]*group.Group)
	db.group.mutex.Unlock()

	db.task.mutex.Lock()
	db.task.table = make(map[string]*task.Task)
	db.task.mutex.Unlock()

	db.evaluation.mutex.Lock()
	db.evaluation.table = make(map[string]*evaluation.Evaluation)
	db.evaluation.mutex.Unlock()
}
