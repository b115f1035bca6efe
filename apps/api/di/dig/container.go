package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/evalboard/apps/api/echo"
	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/report"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
	drivesvc "github.com/trezcool/evalboard/services/drive"
	emailsvc "github.com/trezcool/evalboard/services/email"
	logsvc "github.com/trezcool/evalboard/services/logger"
	"github.com/trezcool/evalboard/storage/database"
	"github.com/trezcool/evalboard/storage/database/inmem"
	sqlxrepos "github.com/trezcool/evalboard/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// ServerParams holds everything the API server depends on.
type ServerParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Store         *state.Store
	StudentSvc    *student.Service
	GroupSvc      *group.Service
	TaskSvc       *task.Service
	EvaluationSvc *evaluation.Service
	Exporter      *export.Exporter
	BackupSvc     *backup.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newDB returns nil when the in-memory repositories are used.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.InMemory {
		return nil
	}
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sqlx.DB) state.Repositories {
	if db == nil {
		mem := inmemdb.Open()
		return state.Repositories{
			Students:    inmemdb.NewStudentRepository(mem),
			Groups:      inmemdb.NewGroupRepository(mem),
			Tasks:       inmemdb.NewTaskRepository(mem),
			Evaluations: inmemdb.NewEvaluationRepository(mem),
		}
	}
	return state.Repositories{
		Students:    sqlxrepos.NewStudentRepository(db),
		Groups:      sqlxrepos.NewGroupRepository(db),
		Tasks:       sqlxrepos.NewTaskRepository(db),
		Evaluations: sqlxrepos.NewEvaluationRepository(db),
	}
}

func newStore(repos state.Repositories, loggerParam DBLoggerParam) *state.Store {
	return state.NewStore(repos, loggerParam.Logger)
}

func newStudentService(repos state.Repositories) *student.Service {
	return student.NewService(repos.Students)
}

func newGroupService(repos state.Repositories) *group.Service {
	return group.NewService(repos.Groups)
}

func newTaskService(conf *core.Config, repos state.Repositories) *task.Service {
	return task.NewService(repos.Tasks, task.ScheduleFromConfig(conf))
}

func newEvaluationService(repos state.Repositories, taskSvc *task.Service) *evaluation.Service {
	return evaluation.NewService(repos.Evaluations, taskSvc)
}

func newExporter(conf *core.Config) *export.Exporter {
	return export.NewExporter(export.OptionsFromConfig(conf))
}

// newBackupStorage returns a nil Storage when Drive backups are disabled.
func newBackupStorage(conf *core.Config, logger core.Logger) backup.Storage {
	if !conf.Drive.Enabled {
		return nil
	}
	storage, err := drivesvc.NewStorage(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up drive storage: %v", err), err)
	}
	return storage
}

func newBackupService(conf *core.Config, storage backup.Storage, repos state.Repositories, logger core.Logger) *backup.Service {
	return backup.NewService(storage, repos, conf.AppName, logger)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newReportSender(conf *core.Config, store *state.Store, mailer core.EmailService, logger core.Logger) *report.Sender {
	return report.NewSender(store, mailer, report.OptionsFromConfig(conf), logger)
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Store:         p.Store,
		StudentSvc:    p.StudentSvc,
		GroupSvc:      p.GroupSvc,
		TaskSvc:       p.TaskSvc,
		EvaluationSvc: p.EvaluationSvc,
		Exporter:      p.Exporter,
		BackupSvc:     p.BackupSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newStore))
	must(c.Provide(newStudentService))
	must(c.Provide(newGroupService))
	must(c.Provide(newTaskService))
	must(c.Provide(newEvaluationService))
	must(c.Provide(newExporter))
	must(c.Provide(newBackupStorage))
	must(c.Provide(newBackupService))
	must(c.Provide(newEmailService))
	must(c.Provide(newReportSender))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
