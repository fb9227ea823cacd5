// Package middleware provides HTTP middleware functions for request logging and processing.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stwalsh4118/snapback/internal/logger"
)

// RequestLogger returns a Gin middleware for logging HTTP requests.
// Session seek and event calls arrive several times per second per player, so
// successful requests under /api/sessions are logged at debug.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		logger.Log.WithLevel(requestLevel(c.FullPath(), status)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")

		if len(c.Errors) > 0 {
			logger.Log.Error().
				Strs("errors", c.Errors.Errors()).
				Str("path", path).
				Msg("Request completed with errors")
		}
	}
}

// requestLevel picks the log level for a finished request
func requestLevel(route string, status int) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	case route == "/api/sessions/:id/seek" || route == "/api/sessions/:id/events":
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
