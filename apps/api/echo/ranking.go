package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/evalboard/core/dashboard"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
	"github.com/trezcool/evalboard/core/task"
)

type rankingApi struct {
	store    *state.Store
	schedule task.Schedule
	opts     ranking.Options
	topN     int
}

func registerRankingAPI(g *echo.Group, store *state.Store, sch task.Schedule, opts ranking.Options, topN int) {
	api := rankingApi{store: store, schedule: sch, opts: opts, topN: topN}

	rg := g.Group("/rankings")
	rg.GET("/students", api.students)
	rg.GET("/groups", api.groups)

	g.GET("/dashboard", api.dashboard)
}

func (api *rankingApi) students(ctx echo.Context) error {
	opts, err := bindRankingQuery(ctx, api.opts)
	if err != nil {
		return err
	}
	ranks := ranking.Students(api.store.Snapshot().Input(), opts)
	if ranks == nil {
		ranks = []ranking.StudentRank{}
	}
	return ctx.JSON(http.StatusOK, ranks)
}

func (api *rankingApi) groups(ctx echo.Context) error {
	opts, err := bindRankingQuery(ctx, api.opts)
	if err != nil {
		return err
	}
	ranks := ranking.Groups(api.store.Snapshot().Input(), opts)
	if ranks == nil {
		ranks = []ranking.GroupRank{}
	}
	return ctx.JSON(http.StatusOK, ranks)
}

func (api *rankingApi) dashboard(ctx echo.Context) error {
	sum := dashboard.Summarize(api.store.Snapshot().Input(), dashboard.Options{
		Ranking:  api.opts,
		Schedule: api.schedule,
		TopN:     api.topN,
		Now:      nowFunc(),
	})
	return ctx.JSON(http.StatusOK, sum)
}
