package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"singo-backend/constant"
	"singo-backend/dto"
	"singo-backend/repository"
	"singo-backend/service"
)

// UploadRecord accepts a multipart take and runs it through the scoring
// pipeline.
func (h *Handler) UploadRecord(c *gin.Context) {
	userID := callerID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing userId"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing file"))
		return
	}
	versionField := c.PostForm("versionId")
	if versionField == "" {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing versionId"))
		return
	}
	versionID, err := strconv.ParseUint(versionField, 10, 64)
	if err != nil || versionID == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Invalid versionId"))
		return
	}

	var key *string
	if k := c.PostForm("key"); k != "" {
		key = &k
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing file"))
		return
	}
	defer file.Close()
	rawAudio, err := io.ReadAll(file)
	if err != nil || len(rawAudio) == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing file"))
		return
	}

	data, err := h.Submission.Submit(c.Request.Context(), service.SubmissionInput{
		UserID:            userID,
		VersionID:         uint(versionID),
		Key:               key,
		RawAudio:          rawAudio,
		ReferenceOverride: c.PostForm("ori"),
	})
	if err != nil {
		var stage *service.StageError
		status := http.StatusInternalServerError
		if errors.As(err, &stage) {
			switch stage.Stage {
			case constant.StageValidate:
				status = http.StatusBadRequest
			case constant.StageScoring:
				status = http.StatusBadGateway
			}
		}
		c.JSON(status, dto.Fail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Upload and scoring successful", data))
}

// CompareRecord re-runs the comparison for an existing recording without
// creating anything.
func (h *Handler) CompareRecord(c *gin.Context) {
	var req dto.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing recordId or oriId"))
		return
	}

	result, err := h.Submission.Compare(c.Request.Context(), req.RecordID, req.OriID)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, dto.Fail("Song not found"))
		return
	}
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Uint("record_id", req.RecordID).Msg("compare failed")
		c.JSON(http.StatusBadGateway, dto.Fail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Comparison successful", result))
}

func (h *Handler) Mistakes(c *gin.Context) {
	var req dto.MistakesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing recordId"))
		return
	}

	mistakes, err := h.Repo.MistakesByRecordingID(c.Request.Context(), req.RecordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to load mistakes"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Mistakes found", mistakes))
}

func (h *Handler) History(c *gin.Context) {
	recordings, err := h.Repo.HistoryByUserID(c.Request.Context(), callerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to load history"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("History found", recordings))
}

// Leaderboard ranks each user's best scored attempt at a version. The window
// defaults to the last seven days; unscored recordings never rank.
func (h *Handler) Leaderboard(c *gin.Context) {
	versionID, err := strconv.ParseUint(c.Param("versionId"), 10, 64)
	if err != nil || versionID == 0 {
		c.JSON(http.StatusBadRequest, dto.Fail("Invalid versionId"))
		return
	}

	since := time.Now().AddDate(0, 0, -7)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Fail("Invalid since timestamp"))
			return
		}
		since = parsed
	}

	entries, err := h.Repo.Leaderboard(c.Request.Context(), uint(versionID), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to load leaderboard"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Leaderboard found", entries))
}
