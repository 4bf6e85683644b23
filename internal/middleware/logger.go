package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one access-log record per request through log. Records carry
// the matched route pattern next to the raw path, and any errors handlers
// attached with c.Error.
//
// Server errors log at Error and client errors at Warn. Successful static
// asset requests drop to Debug so page views stay readable at Info.
func Logger(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()

		attrs := make([]slog.Attr, 0, 7)
		attrs = append(attrs,
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		log.LogAttrs(c.Request.Context(), accessLevel(status, route), "request", attrs...)
	}
}

func accessLevel(status int, route string) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case strings.HasSuffix(route, "/static/*filepath"):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
