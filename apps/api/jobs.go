package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/state"
)

const jobTimeout = 5 * time.Minute

type (
	backuper interface {
		Enabled() bool
		Backup(ctx context.Context, snap state.Snapshot) (backup.FileInfo, error)
	}

	reporter interface {
		Send(ctx context.Context) error
	}

	jobDeps struct {
		conf     *core.Config
		logger   core.Logger
		store    state.Refresher
		backups  backuper
		reporter reporter
	}
)

// newScheduler registers the scheduled backups and ranking reports. Jobs with an empty spec are skipped.
func newScheduler(deps jobDeps) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if spec := deps.conf.Drive.BackupSchedule; spec != "" {
		if !deps.backups.Enabled() {
			deps.logger.Warn("backup schedule ignored: drive storage is disabled")
		} else if _, err := c.AddFunc(spec, func() { runJob(deps.logger, "scheduled backup", deps.backup) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling backups %q", spec)
		}
	}

	if spec := deps.conf.Email.ReportSchedule; spec != "" {
		if _, err := c.AddFunc(spec, func() { runJob(deps.logger, "scheduled report", deps.reporter.Send) }); err != nil {
			return nil, errors.Wrapf(err, "scheduling reports %q", spec)
		}
	}
	return c, nil
}

func (deps jobDeps) backup(ctx context.Context) error {
	snap, err := deps.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	_, err = deps.backups.Backup(ctx, snap)
	return err
}

func runJob(logger core.Logger, name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := job(ctx); err != nil {
		logger.Error(fmt.Sprintf("%s failed: %v", name, err), err)
	}
}
