package modules

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/warungmbahmanto/backend-api/internal/interface/http"
)

// CategoryModule mounts category CRUD under /api/category. Reads are public,
// writes require a session.
type CategoryModule struct {
	Handler *apphttp.CategoryHandler
	AuthMW  gin.HandlerFunc
}

func (m *CategoryModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/category")
	g.GET("", m.Handler.List)
	g.GET("/:id", m.Handler.Get)

	protected := g.Group("")
	protected.Use(m.AuthMW)
	protected.POST("", m.Handler.Create)
	protected.PUT("/:id", m.Handler.Update)
	protected.DELETE("/:id", m.Handler.Delete)
}
