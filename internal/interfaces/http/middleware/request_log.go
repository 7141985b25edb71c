package middleware

import (
	"log/slog"
	"time"

	"github.com/docmind/backend/internal/infrastructure/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestLogger 为每个请求分配 request_id 写入 context，并记录访问日志
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		ctx := log.WithRequestID(c.Request.Context(), requestID)
		if userID := c.Param("user_id"); userID != "" {
			ctx = log.WithUserID(ctx, userID)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		l := log.FromContext(ctx, logger)
		if status >= 500 {
			l.Error("request failed", attrs...)
			return
		}
		l.Debug("request handled", attrs...)
	}
}
