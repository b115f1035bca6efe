package main

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/state"
)

type nopLogger struct {
	errors []string
}

func (l *nopLogger) Debug(string, ...interface{}) {}
func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Warn(string, ...interface{})  {}
func (l *nopLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *nopLogger) Fatal(string, ...interface{}) {}

type stubStore struct {
	snap state.Snapshot
	err  error
}

func (s stubStore) Refresh(context.Context) (state.Snapshot, error) {
	return s.snap, s.err
}

type stubBackups struct {
	enabled bool
	taken   []state.Snapshot
}

func (b *stubBackups) Enabled() bool { return b.enabled }

func (b *stubBackups) Backup(_ context.Context, snap state.Snapshot) (backup.FileInfo, error) {
	b.taken = append(b.taken, snap)
	return backup.FileInfo{ID: "f1"}, nil
}

type stubReporter struct{ sent int }

func (r *stubReporter) Send(context.Context) error {
	r.sent++
	return nil
}

func newJobDeps(backupSpec, reportSpec string, enabled bool) (jobDeps, *stubBackups, *nopLogger) {
	conf := core.NewConfig()
	conf.Drive.BackupSchedule = backupSpec
	conf.Email.ReportSchedule = reportSpec

	backups := &stubBackups{enabled: enabled}
	logger := &nopLogger{}
	return jobDeps{
		conf:     conf,
		logger:   logger,
		store:    stubStore{},
		backups:  backups,
		reporter: &stubReporter{},
	}, backups, logger
}

func Test_newScheduler(t *testing.T) {
	tests := []struct {
		name        string
		backupSpec  string
		reportSpec  string
		enabled     bool
		wantEntries int
		wantErr     bool
	}{
		{name: "nothing scheduled", enabled: true},
		{name: "backups", backupSpec: "0 3 * * *", enabled: true, wantEntries: 1},
		{name: "backups without storage", backupSpec: "0 3 * * *"},
		{name: "backups and reports", backupSpec: "@daily", reportSpec: "0 8 * * 1", enabled: true, wantEntries: 2},
		{name: "invalid backup spec", backupSpec: "lol", enabled: true, wantErr: true},
		{name: "invalid report spec", reportSpec: "every monday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, _ := newJobDeps(tt.backupSpec, tt.reportSpec, tt.enabled)
			c, err := newScheduler(deps)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newScheduler() error = %v; wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(c.Entries()) != tt.wantEntries {
				t.Errorf("len(Entries()) = %v; want %v", len(c.Entries()), tt.wantEntries)
			}
		})
	}
}

func Test_jobDeps_backup(t *testing.T) {
	deps, backups, logger := newJobDeps("", "", true)
	deps.store = stubStore{snap: state.Snapshot{Students: nil}}

	runJob(logger, "scheduled backup", deps.backup)
	require.Len(t, backups.taken, 1)
	assert.Empty(t, logger.errors)

	deps.store = stubStore{err: errors.New("db down")}
	runJob(logger, "scheduled backup", deps.backup)
	assert.Len(t, backups.taken, 1)
	assert.Equal(t, []string{"scheduled backup failed: refreshing state: db down"}, logger.errors)
}
