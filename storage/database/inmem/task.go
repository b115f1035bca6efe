package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/evalboard/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) CreateTask(_ context.Context, tsk task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tsk, ok := repo.db.table[id]; ok {
		return *tsk, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter task.QueryFilter) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, tsk := range repo.db.table {
		if filter.Search != "" && !strings.Contains(strings.ToLower(tsk.Name), filter.Search) {
			continue
		}
		if filter.Status != "" && tsk.Status != filter.Status {
			continue
		}
		tasks = append(tasks, *tsk)
	}
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i].Date.Millis(), tasks[j].Date.Millis()
		if a != b {
			return a < b
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, tsk task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[tsk.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.table[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *taskRepository) DeleteTasksByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *taskRepository) ReplaceTasks(_ context.Context, tasks []task.Task) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table = make(map[string]*task.Task, len(tasks))
	for i := range tasks {
		tsk := tasks[i]
		repo.db.table[tsk.ID] = &tsk
	}
	return nil
}
