package middleware

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// SecureConfig selects the response security headers to emit.
type SecureConfig struct {
	FrameDeny          bool
	ContentTypeNosniff bool
	ReferrerPolicy     string
}

// SecureHeaders returns a gin middleware that adds security headers using
// gin-contrib/secure. It never redirects and never checks the Host header.
// X-XSS-Protection is left out; current browsers ignore it.
func SecureHeaders(cfg SecureConfig) gin.HandlerFunc {
	return secure.New(secure.Config{
		FrameDeny:          cfg.FrameDeny,
		ContentTypeNosniff: cfg.ContentTypeNosniff,
		ReferrerPolicy:     cfg.ReferrerPolicy,
	})
}
