package backup

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/storage/database/inmem"
)

type memStorage struct {
	files []FileInfo
	data  map[string][]byte
}

func (s *memStorage) Upload(_ context.Context, name string, data []byte) (FileInfo, error) {
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	info := FileInfo{ID: fmt.Sprintf("f%d", len(s.files)+1), Name: name, Size: int64(len(data)), CreatedAt: nowFunc()}
	s.files = append(s.files, info)
	s.data[info.ID] = data
	return info, nil
}

func (s *memStorage) List(context.Context) ([]FileInfo, error) {
	return append([]FileInfo(nil), s.files...), nil
}

func (s *memStorage) Download(_ context.Context, id string) ([]byte, error) {
	data, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("file %s not found", id)
	}
	return data, nil
}

func setup() (*Service, *memStorage, state.Repositories) {
	db := inmemdb.Open()
	repos := state.Repositories{
		Students:    inmemdb.NewStudentRepository(db),
		Groups:      inmemdb.NewGroupRepository(db),
		Tasks:       inmemdb.NewTaskRepository(db),
		Evaluations: inmemdb.NewEvaluationRepository(db),
	}
	storage := &memStorage{}
	return NewService(storage, repos, "EvalBoard", nil), storage, repos
}

func TestService_BackupRestore(t *testing.T) {
	ctx := context.Background()
	svc, storage, repos := setup()

	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	first := state.Snapshot{
		Students:    []student.Student{{ID: "s1", Name: "Rahim", GroupID: "g1"}},
		Groups:      []group.Group{{ID: "g1", Name: "Alpha"}},
		Evaluations: []evaluation.Evaluation{{ID: "e1", Scores: map[string]evaluation.Score{"s1": {TotalScore: 12}}}},
	}
	info, err := svc.Backup(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "evalboard-backup-20240310-090000.json", info.Name)

	now = now.Add(time.Hour)
	second := state.Snapshot{Students: []student.Student{{ID: "s2", Name: "Nadia"}}}
	_, err = svc.Backup(ctx, second)
	require.NoError(t, err)

	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f2", files[0].ID, "newest first")

	// latest
	doc, err := svc.Restore(ctx, "")
	require.NoError(t, err)
	assert.Len(t, doc.Students, 1)
	students, err := repos.Students.QueryStudents(ctx, student.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s2", students[0].ID)

	// by id
	_, err = svc.Restore(ctx, "f1")
	require.NoError(t, err)
	students, err = repos.Students.QueryStudents(ctx, student.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	ev, err := repos.Evaluations.GetEvaluation(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, ev.Scores["s1"].Total())

	_, err = svc.Restore(ctx, "nope")
	assert.Error(t, err)

	assert.Len(t, storage.files, 2)
}

func TestService_noBackups(t *testing.T) {
	svc, _, _ := setup()
	_, err := svc.Restore(context.Background(), "")
	assert.Equal(t, ErrNoBackups, err)

	disabled := NewService(nil, state.Repositories{}, "EvalBoard", nil)
	_, err = disabled.Backup(context.Background(), state.Snapshot{})
	assert.Equal(t, ErrStorageDisabled, err)
}

func TestService_RestoreDocument_duplicateIDs(t *testing.T) {
	ctx := context.Background()
	svc, _, repos := setup()

	require.NoError(t, svc.RestoreDocument(ctx, Document{
		Version:  DocumentVersion,
		Students: []student.Student{{ID: "s9", Name: "Nadia"}},
		Groups:   []group.Group{{ID: "g9", Name: "Omega"}},
	}))

	err := svc.RestoreDocument(ctx, Document{
		Version:  DocumentVersion,
		Groups:   []group.Group{{ID: "g1", Name: "Alpha"}},
		Students: []student.Student{{ID: "s1", Name: "Rahim"}, {ID: "s1", Name: "Karim"}},
	})
	assert.True(t, errors.Is(err, ErrInvalidDocument))

	// nothing was replaced
	groups, err := repos.Groups.QueryGroups(ctx, group.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g9", groups[0].ID)
	students, err := repos.Students.QueryStudents(ctx, student.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s9", students[0].ID)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{
			name: "lenient values",
			data: `{"version": 1, "students": [{"id": "s1", "createdAt": {"seconds": 1709634600, "nanoseconds": 0}}],
				"evaluations": [{"id": "e1", "maxPossibleScore": "20", "scores": {"s1": {"totalScore": "n/a"}}}]}`,
		},
		{name: "no version", data: `{"students": []}`},
		{name: "unknown version", data: `{"version": 7}`, wantErr: true},
		{name: "missing id", data: `{"version": 1, "groups": [{"name": "Alpha"}]}`, wantErr: true},
		{
			name:    "duplicate student id",
			data:    `{"version": 1, "students": [{"id": "s1", "name": "Rahim"}, {"id": "s1", "name": "Karim"}]}`,
			wantErr: true,
		},
		{
			name:    "duplicate evaluation id",
			data:    `{"version": 1, "evaluations": [{"id": "e1"}, {"id": "e1"}]}`,
			wantErr: true,
		},
		{name: "same id across collections", data: `{"version": 1, "students": [{"id": "x"}], "groups": [{"id": "x"}]}`},
		{name: "not json", data: `lol`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.data))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDocument))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
