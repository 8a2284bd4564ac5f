package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/service"
)

const userIDKey = "userID"

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Envelope{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	})
}

// AuthMiddleware validates JWT tokens and sets user context
func AuthMiddleware(authService service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Debug("[Auth] Missing Authorization header", zap.String("path", c.Request.URL.Path))
			unauthorized(c, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Debug("[Auth] Invalid header format", zap.String("path", c.Request.URL.Path))
			unauthorized(c, "Invalid authorization header format")
			return
		}

		token, err := authService.ValidateToken(parts[1])
		if err != nil || !token.Valid {
			log.Debug("[Auth] Invalid token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			unauthorized(c, "Invalid or expired token")
			return
		}

		userID, err := authService.GetUserIDFromToken(token)
		if err != nil {
			log.Debug("[Auth] Failed to extract userID", zap.String("path", c.Request.URL.Path), zap.Error(err))
			unauthorized(c, "Invalid token claims")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireUserID aborts with 401 if no user ID is in context
func RequireUserID(c *gin.Context) (string, bool) {
	userID := GetUserID(c)
	if userID == "" {
		unauthorized(c, "User not authenticated")
		return "", false
	}
	return userID, true
}
