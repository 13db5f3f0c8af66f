package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const loggerKey = "logger"

// RequestLogger stores a logger carrying the request id on the context and
// writes one access log line per request. It must run after RequestID.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := log.WithField("request_id", GetRequestID(c))
		c.Set(loggerKey, entry)

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}
		switch {
		case status >= 500:
			entry.WithFields(fields).Error("http request")
		case status >= 400:
			entry.WithFields(fields).Warn("http request")
		default:
			entry.WithFields(fields).Info("http request")
		}
	}
}

// Logger returns the request-scoped logger, or fallback when RequestLogger
// is not installed.
func Logger(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return fallback
}
