package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/backup"
	"github.com/trezcool/evalboard/core/state"
)

const defaultUploadLimit = "10M"

type backupApi struct {
	svc   *backup.Service
	store *state.Store
}

func registerBackupAPI(g *echo.Group, write echo.MiddlewareFunc, svc *backup.Service, store *state.Store, uploadLimit string) {
	api := backupApi{svc: svc, store: store}

	bg := g.Group("/backups")
	bg.GET("", api.list)
	bg.POST("", api.create, write)
	bg.POST("/restore", api.restore, write)

	if uploadLimit == "" {
		uploadLimit = defaultUploadLimit
	}
	g.POST("/restore", api.restoreUpload, write, middleware.BodyLimit(uploadLimit))
	g.POST("/state/refresh", api.refresh, write)
}

type RestoreRequest struct {
	FileID string `json:"fileId"` // latest backup when empty
}

func (api *backupApi) list(ctx echo.Context) error {
	files, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing backups")
	}
	if files == nil {
		files = []backup.FileInfo{}
	}
	return ctx.JSON(http.StatusOK, files)
}

// create backs up the freshly fetched state.
func (api *backupApi) create(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	snap, err := api.store.Refresh(rctx)
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	info, err := api.svc.Backup(rctx, snap)
	if err != nil {
		return errors.Wrap(err, "backing up")
	}
	return ctx.JSON(http.StatusCreated, info)
}

func (api *backupApi) restore(ctx echo.Context) error {
	var data RestoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RestoreRequest")
	}
	rctx := ctx.Request().Context()
	if _, err := api.svc.Restore(rctx, data.FileID); err != nil {
		return errors.Wrap(err, "restoring backup")
	}
	return api.refresh(ctx)
}

// restoreUpload restores the JSON dump sent as request body.
func (api *backupApi) restoreUpload(ctx echo.Context) error {
	doc, err := backup.Decode(ctx.Request().Body)
	if err != nil {
		return err
	}
	if err := api.svc.RestoreDocument(ctx.Request().Context(), doc); err != nil {
		return errors.Wrap(err, "restoring document")
	}
	return api.refresh(ctx)
}

func (api *backupApi) refresh(ctx echo.Context) error {
	snap, err := api.store.Refresh(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	return ctx.JSON(http.StatusOK, newRefreshResponse(snap))
}
