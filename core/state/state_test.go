package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/storage/database/inmem"
)

type failingGroups struct {
	group.Repository
}

func (failingGroups) QueryGroups(context.Context, group.QueryFilter) ([]group.Group, error) {
	return nil, errors.New("boom")
}

func TestStore_Refresh(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	repos := Repositories{
		Students:    inmemdb.NewStudentRepository(db),
		Groups:      inmemdb.NewGroupRepository(db),
		Tasks:       inmemdb.NewTaskRepository(db),
		Evaluations: inmemdb.NewEvaluationRepository(db),
	}
	store := NewStore(repos, nil)

	fetchedAt := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fetchedAt }
	defer func() { nowFunc = time.Now }()

	assert.Empty(t, store.Snapshot().Students)

	_, err := repos.Students.CreateStudent(ctx, student.Student{ID: "s1", Name: "Rahim"})
	require.NoError(t, err)
	_, err = repos.Evaluations.CreateEvaluation(ctx, evaluation.Evaluation{ID: "e1", Scores: map[string]evaluation.Score{"s1": {TotalScore: 5}}})
	require.NoError(t, err)

	// writes are invisible until refreshed
	assert.Empty(t, store.Snapshot().Students)

	snap, err := store.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Students, 1)
	assert.Len(t, snap.Evaluations, 1)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.Equal(t, snap, store.Snapshot())
	assert.Len(t, snap.Input().Evaluations, 1)

	t.Run("failed refresh keeps the snapshot", func(t *testing.T) {
		broken := NewStore(repos, nil)
		broken.snap = snap
		broken.repos.Groups = failingGroups{}

		got, err := broken.Refresh(ctx)
		assert.EqualError(t, err, "fetching groups: boom")
		assert.Equal(t, snap, got)
		assert.Equal(t, snap, broken.Snapshot())
	})
}
