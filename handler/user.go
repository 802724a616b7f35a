package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"singo-backend/dto"
)

func (h *Handler) Profile(c *gin.Context) {
	user, err := h.Repo.FindUserByID(c.Request.Context(), callerID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.Fail("User not found"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("User found", user))
}

// UpdateKey forwards a vocal sample to the key-detection service and stores
// the detected key on the caller's profile.
func (h *Handler) UpdateKey(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing audio file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing audio file"))
		return
	}
	defer file.Close()

	key, err := h.KeyDetect.Detect(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", callerID(c)).Msg("key detection failed")
		c.JSON(http.StatusBadGateway, dto.Fail("Key detection failed"))
		return
	}

	if err := h.Repo.UpdateUserKey(c.Request.Context(), callerID(c), key); err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to update key"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("Successfully Updated Key", gin.H{"user_key": key}))
}
