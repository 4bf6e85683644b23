package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in a later handler into a logged 500. The panic value
// and stack are logged with the request context, so the record carries the
// request ID when RequestID runs first.
//
// respond writes the 500 response. When it is nil, or panics itself, a plain
// text body is written instead. Nothing is written if the handler had already
// started the response before panicking.
func Recovery(log *slog.Logger, respond gin.HandlerFunc) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)

			c.Abort()
			if c.Writer.Written() {
				return
			}
			c.Writer.Header().Del("Content-Type")
			if respond == nil || !safeRespond(c, respond) {
				c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}
		}()

		c.Next()
	}
}

// safeRespond runs respond and reports whether it produced a response.
func safeRespond(c *gin.Context, respond gin.HandlerFunc) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	respond(c)
	return c.Writer.Written()
}
