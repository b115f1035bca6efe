package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/export"
)

var writeFileFunc = os.WriteFile // mockable

func (cli *commandLine) export(ctx context.Context, kindName, out string) error {
	kind, err := export.ParseKind(kindName)
	if err != nil {
		return err
	}
	snap, err := cli.store.Refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	file, err := cli.exporter.Export(ctx, kind, snap)
	if err != nil {
		return errors.Wrap(err, "exporting "+kindName)
	}

	if out == "" {
		out = file.Name
	}
	if err := writeFileFunc(out, file.Data, 0o644); err != nil {
		return errors.Wrap(err, "writing "+out)
	}
	fmt.Fprintf(cli.out, "%s written (%d bytes)\n", out, len(file.Data))
	return nil
}
