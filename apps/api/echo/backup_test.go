package echoapi

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/tests"
)

func Test_backupApi(t *testing.T) {
	app := setup(t)
	seed(t, app)

	runHTTPTests(t, app, []httpTest{
		{name: "no backups yet", path: "/v1/backups", wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "restore without backups", method: http.MethodPost, path: "/v1/backups/restore", key: testAPIKey,
			body: []byte(`{}`), wantCode: http.StatusNotFound,
		},
		{
			name: "backup without key", method: http.MethodPost, path: "/v1/backups",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingKey),
		},
	})

	var info backup.FileInfo
	t.Run("backup", func(t *testing.T) {
		rec := app.do(httpTest{method: http.MethodPost, path: "/v1/backups", key: testAPIKey})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		unmarshal(t, rec, &info)
		assert.Equal(t, "f1", info.ID)
		assert.Len(t, app.storage.files, 1)
	})

	t.Run("restore latest", func(t *testing.T) {
		// changes made after the backup are dropped
		testutil.CreateStudent(t, app.repos.Students, "s4", "Nadia", "104", "")

		rec := app.do(httpTest{method: http.MethodPost, path: "/v1/backups/restore", key: testAPIKey, body: []byte(`{}`)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp RefreshResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, 3, resp.Students)
		assert.Equal(t, 1, resp.Evaluations)
		assert.NotZero(t, resp.FetchedAt)

		_, err := app.repos.Students.GetStudent(context.Background(), "s4")
		assert.Equal(t, student.ErrNotFound, err)
	})

	t.Run("restore by id", func(t *testing.T) {
		rec := app.do(httpTest{
			method: http.MethodPost, path: "/v1/backups/restore", key: testAPIKey, body: []byte(`{"fileId": "` + info.ID + `"}`),
		})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_backupApi_restoreUpload(t *testing.T) {
	app := setup(t)
	seed(t, app)

	doc := []byte(`{
		"version": 1,
		"students": [{"id": "x1", "name": "Mina", "roll": "201", "groupId": "gx"}],
		"groups": [{"id": "gx", "name": "Gamma"}],
		"tasks": [],
		"evaluations": [{"id": "ex", "taskId": "tx", "groupId": "gx", "scores": {"x1": {"totalScore": "42"}}}]
	}`)

	runHTTPTests(t, app, []httpTest{
		{
			name: "missing key", method: http.MethodPost, path: "/v1/restore", body: doc,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingKey),
		},
		{
			name: "not json", method: http.MethodPost, path: "/v1/restore", body: []byte(`lol`), key: testAPIKey,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing ids", method: http.MethodPost, path: "/v1/restore", key: testAPIKey,
			body: []byte(`{"students": [{"name": "Nobody"}]}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unsupported version", method: http.MethodPost, path: "/v1/restore", key: testAPIKey,
			body: []byte(`{"version": 99}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "too large", method: http.MethodPost, path: "/v1/restore", key: testAPIKey,
			body: append(append([]byte(`{"version": 1, "groups": []}`), bytes.Repeat([]byte(" "), 1024)...)),
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name: "restored", method: http.MethodPost, path: "/v1/restore", key: testAPIKey, body: doc,
			wantCode: http.StatusOK,
		},
	})

	snap := app.store.Snapshot()
	require.Len(t, snap.Students, 1)
	assert.Equal(t, "Mina", snap.Students[0].Name)
	assert.Len(t, snap.Groups, 1)
	assert.Empty(t, snap.Tasks)
	require.Len(t, snap.Evaluations, 1)
	assert.Equal(t, 42.0, snap.Evaluations[0].Scores["x1"].Total())
}

func Test_backupApi_stateRefresh(t *testing.T) {
	app := setup(t)
	testutil.CreateGroup(t, app.repos.Groups, "g1", "Alpha")
	assert.Empty(t, app.store.Snapshot().Groups)

	rec := app.do(httpTest{method: http.MethodPost, path: "/v1/state/refresh", key: testAPIKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RefreshResponse
	unmarshal(t, rec, &resp)
	assert.Equal(t, RefreshResponse{Groups: 1, FetchedAt: resp.FetchedAt}, resp)
	assert.Len(t, app.store.Snapshot().Groups, 1)
}
