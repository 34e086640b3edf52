package stats

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrimcore/scrimcore/internal/httphelper"
	"github.com/scrimcore/scrimcore/pkg/stringutil"
)

type statsHandler struct {
	stats Stats
}

func NewHandler(engine *gin.Engine, stats Stats) {
	handler := statsHandler{stats: stats}

	engine.GET("/api/stats/opponents", handler.onAPIOpponents())
	engine.GET("/api/stats/maps", handler.onAPIMapTypes())
	engine.GET("/api/stats/players", handler.onAPIPlayers())
	engine.GET("/api/stats/players/:name", handler.onAPIPlayerDetail())
	engine.GET("/api/stats/heroes", handler.onAPIHeroes())
	engine.GET("/api/stats/heroes/:hero", handler.onAPIHeroDetail())
}

// bindViewQuery parses the shared range and team scope parameters. An invalid
// range is a client error, distinct from an empty result.
func bindViewQuery(ctx *gin.Context, allowShort bool) (ViewQuery, bool) {
	parsed, errRange := ParseRange(ctx.Query("range"), allowShort)
	if errRange != nil {
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errRange))

		return ViewQuery{}, false
	}

	query := ViewQuery{Range: parsed}

	if teamIDStr := ctx.Query("team_id"); teamIDStr != "" {
		teamID := stringutil.StringToIntOrZero(teamIDStr)
		if teamID <= 0 {
			httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, httphelper.ErrParamInvalid,
				"team_id must be a positive integer"))

			return ViewQuery{}, false
		}

		query.TeamID = &teamID
	}

	return query, true
}

func setViewError(ctx *gin.Context, err error) {
	if errors.Is(err, ErrInvalidRange) {
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, err))

		return
	}

	httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, err))
}

func (h statsHandler) onAPIOpponents() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		query, queryOK := bindViewQuery(ctx, false)
		if !queryOK {
			return
		}

		view, errView := h.stats.OpponentView(ctx, query)
		if errView != nil {
			setViewError(ctx, errView)

			return
		}

		ctx.JSON(http.StatusOK, view)
	}
}

func (h statsHandler) onAPIMapTypes() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		query, queryOK := bindViewQuery(ctx, false)
		if !queryOK {
			return
		}

		view, errView := h.stats.MapTypeView(ctx, query)
		if errView != nil {
			setViewError(ctx, errView)

			return
		}

		ctx.JSON(http.StatusOK, view)
	}
}

func (h statsHandler) onAPIPlayers() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		query, queryOK := bindViewQuery(ctx, true)
		if !queryOK {
			return
		}

		view, errView := h.stats.PlayerView(ctx, query)
		if errView != nil {
			setViewError(ctx, errView)

			return
		}

		ctx.JSON(http.StatusOK, view)
	}
}

func (h statsHandler) onAPIPlayerDetail() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name, nameFound := httphelper.GetStringParam(ctx, "name")
		if !nameFound {
			return
		}

		query, queryOK := bindViewQuery(ctx, true)
		if !queryOK {
			return
		}

		detail, errDetail := h.stats.PlayerDetail(ctx, query, name)
		if errDetail != nil {
			setViewError(ctx, errDetail)

			return
		}

		ctx.JSON(http.StatusOK, detail)
	}
}

func (h statsHandler) onAPIHeroes() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		query, queryOK := bindViewQuery(ctx, true)
		if !queryOK {
			return
		}

		view, errView := h.stats.HeroView(ctx, query)
		if errView != nil {
			setViewError(ctx, errView)

			return
		}

		ctx.JSON(http.StatusOK, view)
	}
}

func (h statsHandler) onAPIHeroDetail() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		hero, heroFound := httphelper.GetStringParam(ctx, "hero")
		if !heroFound {
			return
		}

		query, queryOK := bindViewQuery(ctx, true)
		if !queryOK {
			return
		}

		detail, errDetail := h.stats.HeroDetail(ctx, query, hero)
		if errDetail != nil {
			setViewError(ctx, errDetail)

			return
		}

		ctx.JSON(http.StatusOK, detail)
	}
}
