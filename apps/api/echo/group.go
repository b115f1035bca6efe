package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/group"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
)

var errGrpNotFoundInCtx = errors.New("group object not found in echo.Context")

type groupApi struct {
	svc      *group.Service
	store    *state.Store
	rankOpts ranking.Options
}

func registerGroupAPI(g *echo.Group, write echo.MiddlewareFunc, svc *group.Service, store *state.Store, rankOpts ranking.Options) {
	api := groupApi{svc: svc, store: store, rankOpts: rankOpts}

	gg := g.Group("/groups")
	gg.GET("", api.query)
	gg.POST("", api.create, write)
	gg.DELETE("", api.destroyMultiple, write)
	gg.GET("/:id/details", api.details) // also serves ranking.NoGroupID

	dg := gg.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, write)
	dg.DELETE("", api.destroy, write)
}

func (api *groupApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		grp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			if errors.Is(err, group.ErrNotFound) {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding group by ID")
		}
		ctx.Set("object", grp)
		return next(ctx)
	}
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.svc); err != nil {
		return err
	}

	grp, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []group.Group{})
	}
	groups, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, grp, api.svc); err != nil {
		return err
	}

	grp, err := api.svc.Update(rctx, grp, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

// destroy deletes the group only: its students keep their (now dangling) groupId.
func (api *groupApi) destroy(ctx echo.Context) error {
	grp, ok := ctx.Get("object").(group.Group)
	if !ok {
		return errors.Wrap(errGrpNotFoundInCtx, "retrieving object from context")
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, grp.ID); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	rctx := ctx.Request().Context()
	if err := api.svc.Delete(rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting groups")
	}
	if err := refresh(rctx, api.store); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) details(ctx echo.Context) error {
	opts, err := bindRankingQuery(ctx, api.rankOpts)
	if err != nil {
		return err
	}
	det, ok := ranking.Details(api.store.Snapshot().Input(), ctx.Param("id"), opts)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, det)
}
