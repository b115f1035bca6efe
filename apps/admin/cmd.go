package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/report"
	"github.com/trezcool/evalboard/core/state"
)

var (
	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations need a PostgreSQL database, database.inMemory is set")
)

type commandLine struct {
	db         *sql.DB // nil with the in-memory repositories
	store      state.Refresher
	exporter   *export.Exporter
	backupSvc  *backup.Service
	mailer     core.EmailService
	conf       *core.Config
	reportOpts report.Options
	logger     core.Logger
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  rank [-groups] [-task ID] [-min N] [-unassigned] - print the student (or group) ranking")
	fmt.Fprintln(cli.out, "  export -kind KIND [-out FILE] - write an export, KIND is one of "+kindList())
	fmt.Fprintln(cli.out, "  backup - upload a backup of the current state")
	fmt.Fprintln(cli.out, "  restore [-file ID] | -in FILE - restore a stored backup (the latest by default) or a local dump")
	fmt.Fprintln(cli.out, "  report [-to EMAIL]... - mail the ranking report")
}

func kindList() string {
	kinds := make([]string, len(export.Kinds))
	for i, k := range export.Kinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, ", ")
}

// emails collects repeated -to flags.
type emails []string

func (e *emails) String() string {
	return strings.Join(*e, ",")
}

func (e *emails) Set(value string) error {
	*e = append(*e, value)
	return nil
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	rankCmd := cli.newFlagSet("rank")
	rankGroups := rankCmd.Bool("groups", false, "Rank the groups instead of the students.")
	rankTask := rankCmd.String("task", "", "Only rank the evaluations of this task.")
	rankMin := rankCmd.Int("min", 0, "Minimum number of evaluations (default from config).")
	rankUnassigned := rankCmd.Bool("unassigned", false, "Report the students without group as a group.")

	exportCmd := cli.newFlagSet("export")
	exportKind := exportCmd.String("kind", "", "The export kind: "+kindList()+".")
	exportOut := exportCmd.String("out", "", "The output file (default: the export's file name).")

	restoreCmd := cli.newFlagSet("restore")
	restoreFile := restoreCmd.String("file", "", "The stored backup ID (default: the latest).")
	restoreIn := restoreCmd.String("in", "", "A local JSON dump to restore instead.")

	reportCmd := cli.newFlagSet("report")
	var reportTo emails
	reportCmd.Var(&reportTo, "to", "A recipient, may be repeated (default from config).")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "rank":
		if err := parse(rankCmd, args[2:]); err != nil {
			return err
		}
		return cli.rank(ctx, rankOptions{groups: *rankGroups, taskID: *rankTask, min: *rankMin, unassigned: *rankUnassigned})
	case "export":
		if err := parse(exportCmd, args[2:]); err != nil {
			return err
		}
		if *exportKind == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportKind, *exportOut)
	case "backup":
		return cli.backup(ctx)
	case "restore":
		if err := parse(restoreCmd, args[2:]); err != nil {
			return err
		}
		if *restoreIn != "" && *restoreFile != "" {
			restoreCmd.Usage()
			return errHelp
		}
		return cli.restore(ctx, *restoreFile, *restoreIn)
	case "report":
		if err := parse(reportCmd, args[2:]); err != nil {
			return err
		}
		return cli.report(ctx, reportTo)
	default:
		cli.printUsage()
		return errHelp
	}
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}
