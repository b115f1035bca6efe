package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/backup"
)

func (cli *commandLine) backup(ctx context.Context) error {
	snap, err := cli.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	info, err := cli.backupSvc.Backup(ctx, snap)
	if err != nil {
		return errors.Wrap(err, "backing up")
	}
	fmt.Fprintf(cli.out, "backup %s uploaded (id: %s, %d bytes)\n", info.Name, info.ID, info.Size)
	return nil
}

// restore restores the local dump `in` when set, else the stored backup `fileID` (the latest when empty).
func (cli *commandLine) restore(ctx context.Context, fileID, in string) error {
	if in != "" {
		f, err := os.Open(in)
		if err != nil {
			return errors.Wrap(err, "opening dump")
		}
		defer f.Close()

		doc, err := backup.Decode(f)
		if err != nil {
			return err
		}
		if err := cli.backupSvc.RestoreDocument(ctx, doc); err != nil {
			return errors.Wrap(err, "restoring "+in)
		}
	} else if _, err := cli.backupSvc.Restore(ctx, fileID); err != nil {
		return errors.Wrap(err, "restoring backup")
	}

	snap, err := cli.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	fmt.Fprintf(cli.out, "restored %d students, %d groups, %d tasks, %d evaluations\n",
		len(snap.Students), len(snap.Groups), len(snap.Tasks), len(snap.Evaluations))
	return nil
}
