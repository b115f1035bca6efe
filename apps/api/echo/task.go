package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/task"
)

var (
	errTskNotFoundInCtx = errors.New("task object not found in echo.Context")

	nowFunc = time.Now // mockable
)

type taskApi struct {
	svc      *task.Service
	store    *state.Store
	rankOpts ranking.Options
}

func registerTaskAPI(g *echo.Group, write echo.MiddlewareFunc, svc *task.Service, store *state.Store, rankOpts ranking.Options) {
	api := taskApi{svc: svc, store: store, rankOpts: rankOpts}

	tg := g.Group("/tasks")
	tg.GET("", api.query)
	tg.POST("", api.create, write)
	tg.DELETE("", api.destroyMultiple, write)

	dg := tg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, write)
	dg.DELETE("", api.destroy, write)
	dg.GET("/stats", api.stats)
}

func (api *taskApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		tsk, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, task.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding task by ID")
		}
		ctx.Set("object", tsk)
		return next(ctx)
	}
}

// withStatus resolves the status of a single task.
func (api *taskApi) withStatus(tsk task.Task) task.Task {
	return api.svc.WithStatus([]task.Task{tsk}, nowFunc())[0]
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	tsk, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, api.withStatus(tsk))
}

// query lists the tasks, oldest first, with their resolved status.
func (api *taskApi) query(ctx echo.Context) error {
	filter := new(task.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	tasks, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, api.svc.WithStatus(tasks, nowFunc()))
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, api.withStatus(tsk))
}

func (api *taskApi) update(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, tsk); err != nil {
		return err
	}

	tsk, err := api.svc.Update(rctx, tsk, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.withStatus(tsk))
}

func (api *taskApi) destroy(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, tsk.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) stats(ctx echo.Context) error {
	tsk, ok := ctx.Get("object").(task.Task)
	if !ok {
		return errors.Wrap(errTskNotFoundInCtx, "retrieving object from context")
	}
	stats, found := dashboard.TaskStatistics(api.store.Snapshot().Input(), tsk.ID, api.rankOpts)
	if !found {
		// created after the last refresh
		stats = dashboard.TaskStats{TaskID: tsk.ID, TaskName: tsk.Name, GradeDistribution: []dashboard.GradeCount{}}
	}
	return ctx.JSON(http.StatusOK, stats)
}
