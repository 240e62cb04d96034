package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquagas/utility-readings-service/internal/logging"
)

const loggerKey = "httpapi.logger"

// RequestLogger assigns every request an id, echoes it in the X-Request-Id
// header, stashes a request-scoped logger in the gin context and writes one
// access-log line when the handler finishes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		reqLogger := logging.WithRequestID(logger, requestID)
		c.Set(loggerKey, reqLogger)
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		reqLogger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Recovery turns a handler panic into a logged 500 with the uniform error
// body instead of a dropped connection.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				loggerFrom(c, logger).Error("recovered from panic",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
					ErrorCode:        codeInternalError,
					ErrorDescription: descInternalError,
				})
			}
		}()
		c.Next()
	}
}

func loggerFrom(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return fallback
}
