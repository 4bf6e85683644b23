package app

import "github.com/gin-gonic/gin"

// Blueprint is a named, reusable route group. The same blueprint can be
// mounted under several prefixes; each mount gets its own gin.RouterGroup.
type Blueprint interface {
	Name() string
	RegisterRoutes(rg *gin.RouterGroup)
}

// Mount attaches a Blueprint at a URL prefix.
type Mount struct {
	Prefix    string
	Blueprint Blueprint
}
