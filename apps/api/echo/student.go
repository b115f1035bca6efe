package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/student"
)

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc      *student.Service
	store    *state.Store
	rankOpts ranking.Options
}

func registerStudentAPI(g *echo.Group, write echo.MiddlewareFunc, svc *student.Service, store *state.Store, rankOpts ranking.Options) {
	api := studentApi{svc: svc, store: store, rankOpts: rankOpts}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create, write)
	sg.DELETE("", api.destroyMultiple, write)
	sg.GET("/:id/history", api.history) // scored ids unknown to the roster too

	// detail endpoints
	dg := sg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, write)
	dg.DELETE("", api.destroy, write)
}

func (api *studentApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		std, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, student.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding student by ID")
		}
		ctx.Set("object", std)
		return next(ctx)
	}
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, student.OrderingFields...)

	students, err := api.svc.Filter(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, std, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Update(rctx, std, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// history lists the score lines of a student with their ranking metrics.
func (api *studentApi) history(ctx echo.Context) error {
	opts, err := bindRankingQuery(ctx, api.rankOpts)
	if err != nil {
		return err
	}
	hist, ok := ranking.History(api.store.Snapshot().Input(), ctx.Param("id"), opts)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, hist)
}
