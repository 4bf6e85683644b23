package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/orderdesk/internal/config"
	"github.com/simp-lee/orderdesk/internal/pkg"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Mounts      []Mount
	StaticFS    fs.FS // contents of web/static
	CacheStatic bool  // send Cache-Control on static assets (release mode)
	ErrorPages  *errorPages
}

type mountInfo struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// RegisterRoutes registers all application routes on the given gin.Engine.
//
// Every mount gets its own router group, so one blueprint can serve several
// prefixes. Two mounts whose prefixes normalize to the same path are rejected
// before anything is registered.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Mounts) == 0 {
		return errors.New("at least one blueprint mount is required")
	}
	if deps.StaticFS == nil {
		return errors.New("static filesystem is nil")
	}

	mounts, err := normalizeMounts(deps.Mounts)
	if err != nil {
		return err
	}

	// Paths match exactly: "/app/home/" is a 404 rather than a redirect, and a
	// known path with the wrong method is a 405 carrying an Allow header.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = true

	static := staticHandler(deps.StaticFS, deps.CacheStatic)
	r.GET("/static/*filepath", static)

	infos := make([]mountInfo, 0, len(mounts))
	for _, m := range mounts {
		group := r.Group(m.Prefix)
		m.Blueprint.RegisterRoutes(group)
		// The root mount shares the application-wide /static route.
		if m.Prefix != "/" {
			group.GET("/static/*filepath", static)
		}
		infos = append(infos, mountInfo{Name: m.Blueprint.Name(), Prefix: m.Prefix})
	}

	r.GET("/health", healthHandler(infos))

	pages := deps.ErrorPages
	if pages == nil {
		pages = newErrorPages(nil, nil)
	}
	r.NoRoute(pages.NoRoute())
	r.NoMethod(pages.NoMethod())

	return nil
}

func normalizeMounts(in []Mount) ([]Mount, error) {
	out := make([]Mount, 0, len(in))
	seen := make(map[string]string, len(in))
	for i, m := range in {
		if m.Blueprint == nil {
			return nil, fmt.Errorf("blueprint at index %d is nil", i)
		}
		if !strings.HasPrefix(strings.TrimSpace(m.Prefix), "/") {
			return nil, fmt.Errorf("invalid prefix %q for blueprint %q: must start with '/'", m.Prefix, m.Blueprint.Name())
		}
		prefix := config.NormalizePrefix(m.Prefix)
		if isReservedPrefix(prefix) {
			return nil, fmt.Errorf("prefix %q for blueprint %q is reserved", prefix, m.Blueprint.Name())
		}
		if prev, ok := seen[prefix]; ok {
			return nil, fmt.Errorf("prefix %q for blueprint %q is already mounted by %q", prefix, m.Blueprint.Name(), prev)
		}
		seen[prefix] = m.Blueprint.Name()
		out = append(out, Mount{Prefix: prefix, Blueprint: m.Blueprint})
	}
	return out, nil
}

// isReservedPrefix reports whether prefix would shadow an application-wide route.
func isReservedPrefix(prefix string) bool {
	for _, reserved := range []string{"/static", "/health"} {
		if prefix == reserved || strings.HasPrefix(prefix, reserved+"/") {
			return true
		}
	}
	return false
}

// healthHandler reports liveness together with the mounted blueprints.
func healthHandler(mounts []mountInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		pkg.Success(c, gin.H{
			"status":     "ok",
			"blueprints": mounts,
		})
	}
}

// staticHandler serves files from fsys for any route ending in /*filepath.
// It serves the matched wildcard directly, so it works under any prefix.
func staticHandler(fsys fs.FS, cache bool) gin.HandlerFunc {
	fileServer := http.FileServer(http.FS(fsys))
	return func(c *gin.Context) {
		if cache {
			c.Header("Cache-Control", "public, max-age=86400")
		}
		req := c.Request.Clone(c.Request.Context())
		req.URL.Path = c.Param("filepath")
		req.URL.RawPath = ""
		fileServer.ServeHTTP(c.Writer, req)
	}
}
