package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/orderdesk/internal/middleware"
	"github.com/simp-lee/orderdesk/internal/pkg"
)

// errorTemplates maps HTTP status codes to their error template paths.
var errorTemplates = map[int]string{
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// templateLookup reports whether a page template can be rendered.
type templateLookup interface {
	Has(name string) bool
}

// errorPages turns failed requests into 404/405/500 responses, negotiating
// between an HTML error page, a JSON envelope and plain text.
type errorPages struct {
	templates templateLookup
	logger    *slog.Logger
}

func newErrorPages(templates templateLookup, logger *slog.Logger) *errorPages {
	if logger == nil {
		logger = slog.Default()
	}
	return &errorPages{templates: templates, logger: logger}
}

// Handler returns a middleware that converts errors attached by handlers
// (for example a page template that cannot be rendered) into a 500 response.
// Responses that already have a body are left alone.
func (p *errorPages) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		p.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", c.Errors.Last().Err),
		)

		c.Writer.Header().Del("Content-Type")
		p.render(c, http.StatusInternalServerError, "internal server error")
	}
}

// NoRoute returns the handler for unmatched paths.
func (p *errorPages) NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.render(c, http.StatusNotFound, "not found")
	}
}

// NoMethod returns the handler for known paths requested with an unsupported
// method. gin has already set the Allow header.
func (p *errorPages) NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.render(c, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Internal writes a 500 for a request that failed outside normal error
// handling, such as a recovered panic.
func (p *errorPages) Internal(c *gin.Context) {
	p.render(c, http.StatusInternalServerError, "internal server error")
}

// render sends an error response appropriate for the client. Clients that ask
// only for JSON get the pkg.Response envelope; browsers get the error template,
// or plain text when that template is unavailable.
func (p *errorPages) render(c *gin.Context, code int, message string) {
	accept := strings.ToLower(c.GetHeader("Accept"))
	// Check before acceptsHTML because acceptsHTML also matches */*.
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		pkg.Fail(c, code, message)
		return
	}
	if acceptsHTML(c) {
		p.renderHTML(c, code)
		return
	}
	pkg.Fail(c, code, message)
}

func (p *errorPages) renderHTML(c *gin.Context, code int) {
	tmpl, ok := errorTemplates[code]
	if !ok || p.templates == nil || !p.templates.Has(tmpl) {
		c.Data(code, "text/plain; charset=utf-8",
			[]byte(fmt.Sprintf("%d %s", code, http.StatusText(code))))
		return
	}
	c.HTML(code, tmpl, gin.H{
		"RequestID": middleware.GetRequestID(c),
	})
}

// acceptsHTML matches text/html, */* (browser default) and empty Accept headers.
func acceptsHTML(c *gin.Context) bool {
	accept := strings.ToLower(c.GetHeader("Accept"))
	return strings.Contains(accept, "text/html") ||
		strings.Contains(accept, "*/*") ||
		strings.TrimSpace(accept) == ""
}
