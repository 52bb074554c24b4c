package middleware

import (
	"fmt"
	"time"

	"github.com/PercyTuncar/ravehub-website-sub003/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CORS allows the configured origins; an empty list allows any origin
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", IdempotencyKeyHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-Trace-ID", "Idempotent-Replayed"},
		AllowCredentials: len(allowedOrigins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}

// RequestID assigns or propagates X-Request-ID
func RequestID() gin.HandlerFunc {
	return requestid.New()
}

// Logger writes one access log line per request
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", requestid.Get(c)),
		}
		if tenant := c.GetString(ContextKeyTenantID); tenant != "" {
			fields = append(fields, zap.String("tenant_id", tenant))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		msg := fmt.Sprintf("%s %s", c.Request.Method, c.FullPath())
		log := logger.Get()
		switch {
		case status >= 500:
			log.ErrorContext(c.Request.Context(), msg, fields...)
		case status >= 400:
			log.WarnContext(c.Request.Context(), msg, fields...)
		default:
			log.InfoContext(c.Request.Context(), msg, fields...)
		}
	}
}
