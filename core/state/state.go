// Package state keeps an in-memory snapshot of every collection, refreshed wholesale from the repositories.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

var nowFunc = time.Now // mockable

type Snapshot struct {
	Students    []student.Student       `json:"students"`
	Groups      []group.Group           `json:"groups"`
	Tasks       []task.Task             `json:"tasks"`
	Evaluations []evaluation.Evaluation `json:"evaluations"`
	FetchedAt   time.Time               `json:"fetchedAt"`
}

// Input returns the snapshot as ranking input.
func (s Snapshot) Input() ranking.Input {
	return ranking.Input{
		Students:    s.Students,
		Groups:      s.Groups,
		Tasks:       s.Tasks,
		Evaluations: s.Evaluations,
	}
}

type Repositories struct {
	Students    student.Repository
	Groups      group.Repository
	Tasks       task.Repository
	Evaluations evaluation.Repository
}

// Store holds the current Snapshot. Snapshots are replaced, never modified.
type Store struct {
	repos  Repositories
	logger core.Logger

	refreshMu sync.Mutex // serializes refreshes
	mu        sync.RWMutex
	snap      Snapshot
}

func NewStore(repos Repositories, logger core.Logger) *Store {
	return &Store{repos: repos, logger: logger}
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Refresh re-fetches every collection and swaps the snapshot.
// On error the current snapshot is kept.
func (s *Store) Refresh(ctx context.Context) (Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	var (
		snap Snapshot
		err  error
	)
	if snap.Students, err = s.repos.Students.QueryStudents(ctx, student.QueryFilter{}); err != nil {
		return s.Snapshot(), errors.Wrap(err, "fetching students")
	}
	if snap.Groups, err = s.repos.Groups.QueryGroups(ctx, group.QueryFilter{}); err != nil {
		return s.Snapshot(), errors.Wrap(err, "fetching groups")
	}
	if snap.Tasks, err = s.repos.Tasks.QueryTasks(ctx, task.QueryFilter{}); err != nil {
		return s.Snapshot(), errors.Wrap(err, "fetching tasks")
	}
	if snap.Evaluations, err = s.repos.Evaluations.QueryEvaluations(ctx, evaluation.QueryFilter{}); err != nil {
		return s.Snapshot(), errors.Wrap(err, "fetching evaluations")
	}
	snap.FetchedAt = nowFunc().UTC()

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("state refreshed", map[string]interface{}{
			"students":    len(snap.Students),
			"groups":      len(snap.Groups),
			"tasks":       len(snap.Tasks),
			"evaluations": len(snap.Evaluations),
		})
	}
	return snap, nil
}

// Refresher is anything able to refresh the state, eg. after a write.
type Refresher interface {
	Refresh(ctx context.Context) (Snapshot, error)
}
