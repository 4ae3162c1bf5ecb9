package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/pkg/jwt"
)

const (
	userIDKey = "userID"
	nameKey   = "name"
	roleKey   = "role"
)

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return authenticate(jwtManager, false)
}

// JWTAuthWithQuery also accepts ?token= because browsers cannot set headers on a websocket upgrade
func JWTAuthWithQuery(jwtManager *jwt.Manager) gin.HandlerFunc {
	return authenticate(jwtManager, true)
}

func authenticate(jwtManager *jwt.Manager, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			tokenString = c.Query("token")
			ok = tokenString != ""
		}
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing or malformed authorization", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", nil)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", nil)
			}
			c.Abort()
			return
		}

		// the subject feeds conversation ids, which are joined with the separator
		if !domain.ValidUserID(claims.UserID) {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token subject", nil)
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(nameKey, claims.Name)
		c.Set(roleKey, claims.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}

// GetUserRole extracts the role claim from context
func GetUserRole(c *gin.Context) string {
	return c.GetString(roleKey)
}
