package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestLogger logs text records at debug level into buf.
func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newContextLogger is like newTestLogger but also emits attributes stored
// with logger.WithContextAttrs, the way the application logger does.
func newContextLogger(t *testing.T, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	log, err := logger.New(
		logger.WithConsoleWriter(buf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log.Logger
}

// newOrdersRouter mounts a stand-in orders page at /app/home behind mw.
func newOrdersRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	app := r.Group("/app")
	app.GET("/home", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Orders</h1>"))
	})
	app.HEAD("/home", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
