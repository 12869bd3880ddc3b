package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/maxviazov/convention-catalog-service/pkg/response"
	"github.com/rs/zerolog"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

// HTTPObserver receives one call per served request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, took time.Duration)
}

// RequestID reuses an incoming X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// AccessLog writes one zerolog line per request; 5xx responses log at error
// level together with the errors handlers attached. Handlers reach the
// request-scoped logger through zerolog.Ctx on the request context.
func AccessLog(logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		rl := l.With().Str("request_id", c.GetString(response.RequestIDKey)).Logger()
		c.Request = c.Request.WithContext(rl.WithContext(c.Request.Context()))
		c.Next()

		status := c.Writer.Status()
		event := l.Info()
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", c.GetString(response.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("took", time.Since(start)).
			Msg("request served")
	}
}

// Metrics reports every request to obs by matched route.
func Metrics(obs HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obs.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// bindQuery binds query parameters leniently: a value that does not fit its
// field stays zero and the request goes on, since paging input never fails.
// The binding error is still logged at debug level.
func bindQuery(c *gin.Context, obj any) {
	if err := c.ShouldBindQuery(obj); err != nil {
		zerolog.Ctx(c.Request.Context()).Debug().
			Err(err).
			Str("route", c.FullPath()).
			Str("query", c.Request.URL.RawQuery).
			Msg("query binding incomplete")
	}
}
