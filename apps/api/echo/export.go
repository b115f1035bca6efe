package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core/export"
	"github.com/trezcool/evalboard/core/state"
)

// exportFiles maps the download names to the export kinds.
var exportFiles = map[string]export.Kind{
	"students.csv":    export.KindStudentRanking,
	"groups.csv":      export.KindGroupRanking,
	"roster.csv":      export.KindRoster,
	"evaluations.csv": export.KindEvaluations,
	"state.json":      export.KindState,
	"rankings.zip":    export.KindZip,
	"rankings.xlsx":   export.KindXLSX,
}

type exportApi struct {
	exporter *export.Exporter
	store    *state.Store
}

func registerExportAPI(g *echo.Group, exporter *export.Exporter, store *state.Store) {
	api := exportApi{exporter: exporter, store: store}
	g.GET("/exports/:file", api.download)
}

func (api *exportApi) download(ctx echo.Context) error {
	kind, ok := exportFiles[ctx.Param("file")]
	if !ok {
		return errHttpNotFound
	}
	file, err := api.exporter.Export(ctx.Request().Context(), kind, api.store.Snapshot())
	if err != nil {
		return errors.Wrap(err, "exporting "+string(kind))
	}

	h := ctx.Response().Header()
	h.Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(file.Name))
	return ctx.Blob(http.StatusOK, file.ContentType, file.Data)
}
