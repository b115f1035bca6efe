package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
	"github.com/trezcool/evalboard/core/task"
)

type ServerDeps struct {
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

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	shutdown chan os.Signal
	errors   chan error
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	write := apiKeyMiddleware(conf.Server.APIKey)
	rankOpts := ranking.OptionsFromConfig(conf)

	registerStudentAPI(v1, write, s.deps.StudentSvc, s.deps.Store, rankOpts)
	registerGroupAPI(v1, write, s.deps.GroupSvc, s.deps.Store, rankOpts)
	registerTaskAPI(v1, write, s.deps.TaskSvc, s.deps.Store, rankOpts)
	registerEvaluationAPI(v1, write, s.deps.EvaluationSvc, s.deps.Store)
	registerRankingAPI(v1, s.deps.Store, s.deps.TaskSvc.Schedule(), rankOpts, conf.Ranking.TopN)
	registerExportAPI(v1, s.deps.Exporter, s.deps.Store)
	registerBackupAPI(v1, write, s.deps.BackupSvc, s.deps.Store, conf.Server.MaxUploadSize)
}

// Start listens on the configured address, shutdown signals (SIGINT, SIGTERM) are relayed to ShutdownSignal.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
