package modules

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/warungmbahmanto/backend-api/internal/interface/http"
)

// ProductModule mounts product CRUD and search under /api/product. Reads are
// public, writes require a session.
type ProductModule struct {
	Handler *apphttp.ProductHandler
	AuthMW  gin.HandlerFunc
}

func (m *ProductModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/product")
	g.GET("", m.Handler.List)
	g.GET("/search", m.Handler.Search)
	g.GET("/:id", m.Handler.Get)

	protected := g.Group("")
	protected.Use(m.AuthMW)
	protected.POST("", m.Handler.Create)
	protected.PUT("/:id", m.Handler.Update)
	protected.DELETE("/:id", m.Handler.Delete)
}
