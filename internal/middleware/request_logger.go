package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

// health checks and metric scrapes stay out of the access log
var unloggedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// RequestLogger tags every request with an id, puts a logger scoped to that id
// on the request context and logs the outcome once the handler returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		reqLog := logger.WithRequestID(requestID)
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		if unloggedPaths[c.Request.URL.Path] {
			return
		}

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = reqLog.Error()
		case status >= http.StatusBadRequest:
			event = reqLog.Warn()
		case c.IsWebsocket():
			event = reqLog.Debug()
		default:
			event = reqLog.Info()
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		// the query is left out: websocket clients pass their token there
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_id", GetUserID(c)).
			Msg("request")
	}
}

// RequestLog returns the logger scoped to the current request
func RequestLog(c *gin.Context) *zerolog.Logger {
	return zerolog.Ctx(c.Request.Context())
}
