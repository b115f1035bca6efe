package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/report"
	"github.com/trezcool/evalboard/core/state"
	drivesvc "github.com/trezcool/evalboard/services/drive"
	emailsvc "github.com/trezcool/evalboard/services/email"
	logsvc "github.com/trezcool/evalboard/services/logger"
	"github.com/trezcool/evalboard/storage/database"
	"github.com/trezcool/evalboard/storage/database/inmem"
	sqlxrepos "github.com/trezcool/evalboard/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	defer logger.Close()

	// set up DB & repos
	var (
		db    *sql.DB
		repos state.Repositories
	)
	if conf.Database.InMemory {
		logger.Warn("using the in-memory database: data is not persisted")
		mem := inmemdb.Open()
		repos = state.Repositories{
			Students:    inmemdb.NewStudentRepository(mem),
			Groups:      inmemdb.NewGroupRepository(mem),
			Tasks:       inmemdb.NewTaskRepository(mem),
			Evaluations: inmemdb.NewEvaluationRepository(mem),
		}
	} else {
		sqlxDB, err := database.Open(conf)
		errAndDie(logger, err)
		defer sqlxDB.Close()

		db = sqlxDB.DB
		repos = state.Repositories{
			Students:    sqlxrepos.NewStudentRepository(sqlxDB),
			Groups:      sqlxrepos.NewGroupRepository(sqlxDB),
			Tasks:       sqlxrepos.NewTaskRepository(sqlxDB),
			Evaluations: sqlxrepos.NewEvaluationRepository(sqlxDB),
		}
	}

	// set up services
	var storage backup.Storage
	if conf.Drive.Enabled {
		driveStorage, err := drivesvc.NewStorage(conf, logger)
		errAndDie(logger, err)
		storage = driveStorage
	}

	var mailer core.EmailService
	if conf.Debug {
		mailer = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailer = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		db:         db,
		store:      state.NewStore(repos, logger),
		exporter:   export.NewExporter(export.OptionsFromConfig(conf)),
		backupSvc:  backup.NewService(storage, repos, conf.AppName, logger),
		mailer:     mailer,
		conf:       conf,
		reportOpts: report.OptionsFromConfig(conf),
		logger:     logger,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Close()
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
