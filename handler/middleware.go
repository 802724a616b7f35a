package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"singo-backend/dto"
)

const userIDKey = "user_id"

// Auth validates the session cookie and stores the caller's user id on the
// request context.
func (h *Handler) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("token")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not Allowed"))
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not Allowed"))
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not Allowed"))
			return
		}
		userID, ok := claims["userId"].(float64)
		if !ok || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not Allowed"))
			return
		}

		c.Set(userIDKey, uint(userID))
		c.Next()
	}
}

func callerID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}
