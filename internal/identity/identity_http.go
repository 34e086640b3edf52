package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/httphelper"
)

type identityHandler struct {
	Identities
}

func NewHandler(engine *gin.Engine, identities Identities) {
	handler := identityHandler{Identities: identities}

	engine.GET("/api/teams", handler.onAPIGetTeams())
	engine.POST("/api/teams", handler.onAPIPostTeam())
	engine.GET("/api/players", handler.onAPIGetPlayers())
	engine.GET("/api/players/:player_id", handler.onAPIGetPlayer())
	engine.POST("/api/players", handler.onAPIPostPlayer())
}

func (h identityHandler) onAPIGetTeams() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		teams, errTeams := h.Teams(ctx)
		if errTeams != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errTeams, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, teams)
	}
}

type teamRequest struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
}

func (h identityHandler) onAPIPostTeam() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[teamRequest](ctx)
		if !ok {
			return
		}

		team := Team{TeamID: req.TeamID, TeamName: req.TeamName}
		if errSave := h.SaveTeam(ctx, &team); errSave != nil {
			if errors.Is(errSave, ErrNameTooShort) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errSave))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusCreated, team)
	}
}

type playersQuery struct {
	TeamID *int `schema:"team_id"`
}

func (h identityHandler) onAPIGetPlayers() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var query playersQuery
		if !httphelper.BindQuery(ctx, &query) {
			return
		}

		players, errPlayers := h.Players(ctx, query.TeamID)
		if errPlayers != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errPlayers, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, players)
	}
}

func (h identityHandler) onAPIGetPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		playerID, idFound := httphelper.GetIntParam(ctx, "player_id")
		if !idFound {
			return
		}

		player, errPlayer := h.GetPlayer(ctx, playerID)
		if errPlayer != nil {
			if errors.Is(errPlayer, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, httphelper.ErrNotFound))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errPlayer, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, player)
	}
}

type playerRequest struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	TeamID   *int   `json:"team_id"`
}

func (h identityHandler) onAPIPostPlayer() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[playerRequest](ctx)
		if !ok {
			return
		}

		player := PlayerIdentity{PlayerID: req.PlayerID, Name: req.Name, TeamID: req.TeamID}
		if errSave := h.SavePlayer(ctx, &player); errSave != nil {
			if errors.Is(errSave, ErrNameTooShort) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errSave))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError,
				errors.Join(errSave, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusCreated, player)
	}
}
