package orders

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HomeTemplate is the page rendered by Handler.Home.
const HomeTemplate = "orders.html"

// Handler serves the orders pages. It holds no state.
type Handler struct{}

// NewHandler creates a new Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Home renders the orders home page with no template data.
// GET /home
//
// A missing or broken template is recorded on the context by gin and
// answered with a 500 by the application's error middleware.
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, HomeTemplate, nil)
}
