package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists what cross-origin callers may do. An AllowOrigins entry of
// "*" admits every origin; an empty list admits none.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           string // seconds a preflight may be cached
}

// DefaultCORSConfig admits any origin for the read-only page routes.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", RequestIDHeader},
		MaxAge:       "86400",
	}
}

// CORS answers preflight requests with 204 and decorates simple requests from
// admitted origins. Requests without an Origin header pass through untouched.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")

	allowOrigin := func(origin string) string {
		switch {
		case wildcard && !cfg.AllowCredentials:
			return "*"
		case wildcard, slices.Contains(cfg.AllowOrigins, origin):
			// Credentialed responses must name the origin.
			return origin
		default:
			return ""
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		allowed := allowOrigin(origin)
		if allowed == "" {
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if cfg.MaxAge != "" {
			h.Set("Access-Control-Max-Age", cfg.MaxAge)
		}
		if cfg.AllowCredentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
