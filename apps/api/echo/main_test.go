package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
	"github.com/trezcool/evalboard/storage/database/inmem"
	"github.com/trezcool/evalboard/tests"
)

const testAPIKey = "secret"

var (
	errMissingKey = httpErr{Error: "missing api key"}
	errNotFound   = httpErr{Error: "not found"}
)

type memStorage struct {
	files []backup.FileInfo
	data  map[string][]byte
}

func (s *memStorage) Upload(_ context.Context, name string, data []byte) (backup.FileInfo, error) {
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	info := backup.FileInfo{
		ID:        fmt.Sprintf("f%d", len(s.files)+1),
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: time.Now().UTC(),
	}
	s.files = append([]backup.FileInfo{info}, s.files...) // newest first
	s.data[info.ID] = data
	return info, nil
}

func (s *memStorage) List(context.Context) ([]backup.FileInfo, error) {
	return append([]backup.FileInfo(nil), s.files...), nil
}

func (s *memStorage) Download(_ context.Context, id string) ([]byte, error) {
	data, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("file %s not found", id)
	}
	return data, nil
}

type testApp struct {
	*Server
	repos   state.Repositories
	store   *state.Store
	storage *memStorage
}

func setup(t *testing.T) testApp {
	conf := core.NewConfig()
	conf.AppName = "EvalBoard"
	conf.Debug = false
	conf.TestMode = true
	conf.Server.APIKey = testAPIKey
	conf.Server.DisableReqLogs = true
	conf.Export.BusyCooldown = time.Hour
	conf.Task.Timezone = "UTC"
	conf.Server.MaxUploadSize = "1K"

	// set up DB & repos
	repos := testutil.NewRepositories(inmemdb.Open())
	store := state.NewStore(repos, nil)

	// set up services
	taskSvc := task.NewService(repos.Tasks, task.DefaultSchedule)
	storage := &memStorage{}

	srv := NewServer(ServerDeps{
		Conf:          conf,
		Store:         store,
		StudentSvc:    student.NewService(repos.Students),
		GroupSvc:      group.NewService(repos.Groups),
		TaskSvc:       taskSvc,
		EvaluationSvc: evaluation.NewService(repos.Evaluations, taskSvc),
		Exporter:      export.NewExporter(export.OptionsFromConfig(conf)),
		BackupSvc:     backup.NewService(storage, repos, conf.AppName, nil),
	})
	return testApp{Server: srv, repos: repos, store: store, storage: storage}
}

// refresh loads fixtures created straight in the repositories.
func (app testApp) refresh(t *testing.T) {
	if _, err := app.store.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	key      string
	wantCode int
	wantData []byte
}

func newKeyRequest(method, path, key string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(apiKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newKeyRequest(method, path, "", data...)
}

func (app testApp) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newKeyRequest(method, tt.path, tt.key, tt.body)
	app.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to EvalBoard API!", rec.Body.String())
}
