package scrim

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/httphelper"
	"github.com/scrimcore/scrimcore/pkg/log"
	"github.com/scrimcore/scrimcore/pkg/stringutil"
)

type scrimHandler struct {
	scrims Scrims
}

func NewHandler(engine *gin.Engine, scrims Scrims) {
	handler := scrimHandler{scrims: scrims}

	engine.GET("/api/scrims", handler.onAPIGetScrims())
	engine.GET("/api/scrims/:scrim_id", handler.onAPIGetScrim())
	engine.POST("/api/scrims", handler.onAPIUploadScrim())
	engine.POST("/api/scrims/preview", handler.onAPIPreviewScrim())
	engine.DELETE("/api/scrims/:scrim_id", handler.onAPIDeleteScrim())
	engine.POST("/api/scrims/:scrim_id/review", handler.onAPISaveReview())
}

func readUploadFiles(headers []*multipart.FileHeader) ([]UploadFile, error) {
	files := make([]UploadFile, 0, len(headers))

	for _, header := range headers {
		handle, errOpen := header.Open()
		if errOpen != nil {
			return nil, BatchFileError{File: header.Filename, Err: errOpen}
		}

		content, errRead := io.ReadAll(handle)
		_ = handle.Close()

		if errRead != nil {
			return nil, BatchFileError{File: header.Filename, Err: errRead}
		}

		files = append(files, UploadFile{Name: header.Filename, Content: string(content)})
	}

	return files, nil
}

func uploadErrorCode(err error) int {
	var fileErr BatchFileError
	if errors.As(err, &fileErr) || errors.Is(err, ErrEmptyBatch) || errors.Is(err, ErrNameTooShort) {
		return http.StatusBadRequest
	}

	if errors.Is(err, database.ErrDuplicate) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func (h scrimHandler) onAPIUploadScrim() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		form, errForm := ctx.MultipartForm()
		if errForm != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errForm))

			return
		}

		batch := UploadBatch{
			Name:             ctx.PostForm("name"),
			OpponentOverride: ctx.PostForm("opponent_override"),
			Date:             time.Now(),
		}

		if dateStr := ctx.PostForm("scrim_date"); dateStr != "" {
			parsed, errDate := time.Parse(time.RFC3339, dateStr)
			if errDate != nil {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, errDate,
					"scrim_date must be RFC3339"))

				return
			}

			batch.Date = parsed
		}

		if teamIDStr := ctx.PostForm("team_id"); teamIDStr != "" {
			teamID := stringutil.StringToIntOrZero(teamIDStr)
			if teamID <= 0 {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, httphelper.ErrParamInvalid,
					"team_id must be a positive integer"))

				return
			}

			batch.TeamID = &teamID
		}

		if mappingStr := ctx.PostForm("mapping"); mappingStr != "" {
			if errMapping := json.Unmarshal([]byte(mappingStr), &batch.Mapping); errMapping != nil {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, errMapping,
					"mapping must be a JSON object of raw name to player id"))

				return
			}
		}

		files, errFiles := readUploadFiles(form.File["files"])
		if errFiles != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errFiles))

			return
		}

		batch.Files = files

		detail, errUpload := h.scrims.Upload(ctx, batch)
		if errUpload != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(uploadErrorCode(errUpload), errUpload))

			return
		}

		ctx.JSON(http.StatusCreated, detail)
	}
}

func (h scrimHandler) onAPIPreviewScrim() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		form, errForm := ctx.MultipartForm()
		if errForm != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errForm))

			return
		}

		files, errFiles := readUploadFiles(form.File["files"])
		if errFiles != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errFiles))

			return
		}

		preview, errPreview := h.scrims.Preview(ctx, files)
		if errPreview != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(uploadErrorCode(errPreview), errPreview))

			return
		}

		ctx.JSON(http.StatusOK, preview)
	}
}

func (h scrimHandler) onAPIGetScrims() gin.HandlerFunc {
	type scrimsResponse struct {
		Count  int64   `json:"count"`
		Scrims []Scrim `json:"scrims"`
	}

	return func(ctx *gin.Context) {
		var query ScrimsQuery
		if !httphelper.BindQuery(ctx, &query) {
			return
		}

		scrims, count, errScrims := h.scrims.List(ctx, query)
		if errScrims != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errScrims))

			return
		}

		ctx.JSON(http.StatusOK, scrimsResponse{Count: count, Scrims: scrims})
	}
}

func (h scrimHandler) onAPIGetScrim() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		scrimID, idFound := httphelper.GetIntParam(ctx, "scrim_id")
		if !idFound {
			return
		}

		detail, errDetail := h.scrims.GetScrimDetail(ctx, scrimID)
		if errDetail != nil {
			if errors.Is(errDetail, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, errDetail))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errDetail))

			return
		}

		ctx.JSON(http.StatusOK, detail)
	}
}

func (h scrimHandler) onAPIDeleteScrim() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		scrimID, idFound := httphelper.GetIntParam(ctx, "scrim_id")
		if !idFound {
			return
		}

		if _, errScrim := h.scrims.repository.GetScrim(ctx, scrimID); errScrim != nil {
			if errors.Is(errScrim, database.ErrNoResult) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusNotFound, errScrim))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errScrim))

			return
		}

		if errDelete := h.scrims.Delete(ctx, scrimID); errDelete != nil {
			slog.Error("Failed to delete scrim", log.ErrAttr(errDelete))
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errDelete))

			return
		}

		ctx.JSON(http.StatusOK, gin.H{"scrim_id": scrimID})
	}
}

func (h scrimHandler) onAPISaveReview() gin.HandlerFunc {
	type reviewRequest struct {
		Notes  string `json:"notes"`
		Rating string `json:"rating"`
	}

	return func(ctx *gin.Context) {
		scrimID, idFound := httphelper.GetIntParam(ctx, "scrim_id")
		if !idFound {
			return
		}

		req, bindOK := httphelper.BindJSON[reviewRequest](ctx)
		if !bindOK {
			return
		}

		review := Review{
			ScrimID:   scrimID,
			Notes:     req.Notes,
			Rating:    req.Rating,
			CreatedOn: time.Now(),
		}

		if errSave := h.scrims.SaveReview(ctx, &review); errSave != nil {
			if errors.Is(errSave, ErrEmptyNotes) {
				httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusBadRequest, errSave))

				return
			}

			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errSave))

			return
		}

		ctx.JSON(http.StatusCreated, review)
	}
}
