package orders

import "github.com/gin-gonic/gin"

// Name identifies the orders blueprint in configuration.
const Name = "orders"

// Blueprint implements app.Blueprint for the orders pages.
type Blueprint struct {
	handler *Handler
}

// NewBlueprint creates a new Blueprint with the given handler.
// Panics if h is nil.
func NewBlueprint(h *Handler) *Blueprint {
	if h == nil {
		panic("orders.NewBlueprint: handler must not be nil")
	}
	return &Blueprint{handler: h}
}

// Name returns the blueprint name.
func (b *Blueprint) Name() string {
	return Name
}

// RegisterRoutes registers the orders page routes on rg. HEAD is served by
// the GET handler; net/http drops the body.
func (b *Blueprint) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/home", b.handler.Home)
	rg.HEAD("/home", b.handler.Home)
}
