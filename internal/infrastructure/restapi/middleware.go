package restapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ZapLoggerMiddleware пишет access log через zap.
func ZapLoggerMiddleware(zapLogger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			zapLogger.Error("Request completed with errors", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			zapLogger.Error("Request", fields...)
		case status >= http.StatusBadRequest:
			zapLogger.Warn("Request", fields...)
		default:
			zapLogger.Info("Request", fields...)
		}
	}
}

// RateLimitMiddleware rejects requests with 429 once limiter runs dry.
func RateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIError{Error: "too many connection requests, slow down"})
			return
		}
		c.Next()
	}
}
