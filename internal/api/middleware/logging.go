package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
)

// RequestLogger logs every request with its status and latency, and the
// errors handlers attached to the context.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := GetUserID(c); userID != "" {
			fields = append(fields, zap.String("user", userID))
		}

		switch {
		case status >= http.StatusInternalServerError:
			for _, e := range c.Errors {
				fields = append(fields, zap.NamedError("error", e.Err))
			}
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Info("request rejected", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// Recovery turns panics into 500 envelopes and reports them to sentry.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if hub := sentry.CurrentHub(); hub.Client() != nil {
					hub.Clone().RecoverWithContext(c.Request.Context(), r)
				}
				log.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.Request.URL.Path), zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.Envelope{
					StatusCode: http.StatusInternalServerError,
					Message:    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// ErrorReporter sends errors behind 5xx responses to sentry.
func ErrorReporter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		hub := sentry.CurrentHub()
		if hub.Client() == nil {
			return
		}
		hub = hub.Clone()
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("method", c.Request.Method)
			scope.SetTag("path", c.FullPath())
			if userID := GetUserID(c); userID != "" {
				scope.SetUser(sentry.User{ID: userID})
			}
			for _, e := range c.Errors {
				hub.CaptureException(e.Err)
			}
		})
	}
}
