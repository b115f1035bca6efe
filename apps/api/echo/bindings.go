package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/evalboard/core"
	"github.com/trezcool/evalboard/core/ranking"
	"github.com/trezcool/evalboard/core/state"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param, eg. `?ordering=-name,roll`. Only `allowed` fields are kept.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	// RankingQuery holds the ranking options a request may override.
	RankingQuery struct {
		TaskID            string `query:"task"`
		MinEvaluations    int    `query:"min"`
		IncludeUnassigned bool   `query:"unassigned"`
	}

	RefreshResponse struct {
		Students    int   `json:"students"`
		Groups      int   `json:"groups"`
		Tasks       int   `json:"tasks"`
		Evaluations int   `json:"evaluations"`
		FetchedAt   int64 `json:"fetchedAt"` // epoch ms
	}
)

func newRefreshResponse(snap state.Snapshot) RefreshResponse {
	return RefreshResponse{
		Students:    len(snap.Students),
		Groups:      len(snap.Groups),
		Tasks:       len(snap.Tasks),
		Evaluations: len(snap.Evaluations),
		FetchedAt:   snap.FetchedAt.UnixNano() / 1e6,
	}
}

func (q RankingQuery) apply(opts ranking.Options) ranking.Options {
	opts.TaskID = core.CleanString(q.TaskID)
	if q.MinEvaluations > 0 {
		opts.MinEvaluations = q.MinEvaluations
	}
	opts.IncludeUnassigned = q.IncludeUnassigned
	return opts
}

// bindRankingQuery returns `opts` overridden by the request's query params.
func bindRankingQuery(ctx echo.Context, opts ranking.Options) (ranking.Options, error) {
	var q RankingQuery
	if err := ctx.Bind(&q); err != nil {
		return opts, errors.Wrap(err, "binding to RankingQuery")
	}
	return q.apply(opts), nil
}

// refresh re-fetches the state after a write.
func refresh(ctx context.Context, store state.Refresher) error {
	if _, err := store.Refresh(ctx); err != nil {
		return errors.Wrap(err, "refreshing state")
	}
	return nil
}
