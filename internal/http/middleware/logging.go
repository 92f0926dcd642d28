// Package middleware holds the Gin middleware of the to-do API: correlation
// ids, access logging with redaction, panic recovery into the error envelope,
// Prometheus metrics, per-client rate limiting and security headers.
//
// Middleware that rejects a request writes the same envelope as the handlers
// ({"success":false,"errorCode":...,"errorMessage":...}) and records the code
// under ErrorCodeKey. Request and response bodies are never logged.
package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/sysutil"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// transactionIDHeader carries a caller-chosen id spanning several requests.
	transactionIDHeader = "X-Transaction-ID"
	// loggerKey is the Gin context key of the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// If the incoming request has X-Request-ID that value is reused, otherwise a
// new UUIDv4 is generated. The ID is written back to the response header and
// stored in the Gin context under the "requestID" key. A caller-supplied
// X-Transaction-ID is echoed unchanged.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		if tid := c.GetHeader(transactionIDHeader); tid != "" {
			c.Writer.Header().Set(transactionIDHeader, tid)
		}
		c.Next()
	}
}

// LogOptions configures Logger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]"; they are merged with Authorization, Cookie and Set-Cookie.
type LogOptions struct {
	MaskHeaders []string
}

// Logger writes one access log line per request and installs a
// request-scoped logger for handlers (see LoggerFrom).
//
// The line carries request_id, transaction_id (X-Transaction-ID, falling back
// to the request id), method, route (raw path when unmatched), scrubbed params
// and query, remote_ip, bytes_in, then status, latency, bytes_out and the
// masked request headers. Place it after RequestID.
func Logger(opts LogOptions) gin.HandlerFunc {
	red := newRedactor(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		l := scopedLogger(c, red)
		c.Set(loggerKey, &l)

		c.Next()

		ev := l.WithLevel(levelFor(c)).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Interface("headers", red.headers(c.Request.Header))
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("request")
	}
}

// scopedLogger derives the per-request logger from the global one.
func scopedLogger(c *gin.Context, red *redactor) zerolog.Logger {
	rid := c.GetString(requestIDKey)
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	params := zerolog.Dict()
	for _, p := range c.Params {
		params.Str(p.Key, red.scrub(p.Value))
	}

	return log.With().
		Str("request_id", rid).
		Str("transaction_id", sysutil.FirstNonEmpty(c.GetHeader(transactionIDHeader), rid)).
		Str("method", c.Request.Method).
		Str("path", route).
		Dict("params", params).
		Str("remote_ip", c.ClientIP()).
		Str("query", truncate(red.scrub(c.Request.URL.RawQuery), maxQueryLogLength)).
		Int64("bytes_in", c.Request.ContentLength). // -1 when unknown
		Logger()
}

// levelFor is error for 5xx or collected gin errors, warn for 4xx, info
// otherwise.
func levelFor(c *gin.Context) zerolog.Level {
	switch status := c.Writer.Status(); {
	case len(c.Errors) > 0 || status >= 500:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Recovery turns a panic into the InternalServerError envelope
// ({"success":false,"errorCode":1003,"errorMessage":"Internal Server Error"})
// and logs the stack. If the handler already wrote a response only the status
// is recorded.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			internal := domain.NewInternalServerError()
			if c.Writer.Written() {
				c.AbortWithStatus(internal.StatusCode())
				return
			}
			abortWithError(c, 0, internal)
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger installed by Logger, or the global logger when
// none is attached. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate cuts s to n bytes plus an ellipsis. n <= 0 disables it.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
