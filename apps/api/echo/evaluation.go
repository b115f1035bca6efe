package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/evaluation"
	"github.com/trezcool/evalboard/core/state"
)

var errEvalNotFoundInCtx = errors.New("evaluation object not found in echo.Context")

type evaluationApi struct {
	svc   *evaluation.Service
	store *state.Store
}

func registerEvaluationAPI(g *echo.Group, write echo.MiddlewareFunc, svc *evaluation.Service, store *state.Store) {
	api := evaluationApi{svc: svc, store: store}

	eg := g.Group("/evaluations")
	eg.GET("", api.query)
	eg.POST("", api.create, write)
	eg.DELETE("", api.destroyMultiple, write)

	dg := eg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, write)
	dg.DELETE("", api.destroy, write)
}

func (api *evaluationApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ev, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, evaluation.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding evaluation by ID")
		}
		ctx.Set("object", ev)
		return next(ctx)
	}
}

func (api *evaluationApi) create(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	rctx := ctx.Request().Context()
	tsk, err := data.Validate(rctx, api.svc)
	if err != nil {
		return err
	}

	ev, err := api.svc.Create(rctx, data, tsk)
	if err != nil {
		return errors.Wrap(err, "creating evaluation")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *evaluationApi) query(ctx echo.Context) error {
	filter := new(evaluation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []evaluation.Evaluation{})
	}
	evals, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	ev, ok := ctx.Get("object").(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errEvalNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *evaluationApi) update(ctx echo.Context) error {
	ev, ok := ctx.Get("object").(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errEvalNotFoundInCtx, "retrieving object from context")
	}

	var data evaluation.UpdateEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvaluation")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, ev, api.svc); err != nil {
		return err
	}

	ev, err := api.svc.Update(rctx, ev, data)
	if err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *evaluationApi) destroy(ctx echo.Context) error {
	ev, ok := ctx.Get("object").(evaluation.Evaluation)
	if !ok {
		return errors.Wrap(errEvalNotFoundInCtx, "retrieving object from context")
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, ev.ID); err != nil {
		return errors.Wrap(err, "deleting evaluation")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *evaluationApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting evaluations")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
