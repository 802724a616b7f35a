package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"singo-backend/dto"
	"singo-backend/repository"
)

func (h *Handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing username or password"))
		return
	}

	if _, err := h.Repo.FindUserByUsername(c.Request.Context(), req.Username); err == nil {
		c.JSON(http.StatusConflict, dto.Fail("Username already taken"))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to create user"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to create user"))
		return
	}

	user, err := h.Repo.CreateUser(c.Request.Context(), req.Username, string(hash))
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to create user")
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to create user"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("User created", user))
}

func (h *Handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Fail("Missing username or password"))
		return
	}

	user, err := h.Repo.FindUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Fail("Invalid username or password"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, dto.Fail("Invalid username or password"))
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": user.UserID,
		"exp":    time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(h.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.Fail("Failed to sign token"))
		return
	}

	c.SetCookie("token", signed, int(ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, dto.OK("Login successful", user))
}
