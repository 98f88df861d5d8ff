package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/warungmbahmanto/backend-api/internal/container"
	"github.com/warungmbahmanto/backend-api/internal/interface/middleware"
	"github.com/warungmbahmanto/backend-api/internal/router/modules"
	"github.com/warungmbahmanto/backend-api/pkg/response"
)

// Setup builds the Gin engine: global middlewares, CORS, health check, and
// all feature modules under /api.
func Setup(c *container.Container) *gin.Engine {
	gin.SetMode(c.Cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if c.Cfg.HTTPLogEnabled {
		engine.Use(gin.Logger())
	}
	engine.Use(middleware.RealIP())
	engine.Use(middleware.RequestIDMiddleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := c.Cfg.CORSOrigins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	engine.Use(cors.New(corsCfg))

	engine.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.NoRoute(func(ctx *gin.Context) {
		response.Error[any](ctx, http.StatusNotFound, "route not found", nil)
	})

	authMW := middleware.Auth(c.JWT, c.Blacklist, c.Users, c.Redis)
	allowPrivate := middleware.AllowPrivateIP()

	reg := NewRegistry(engine)
	reg.Add(&modules.UserModule{
		Handler:       c.AuthHandler,
		AuthMW:        authMW,
		LoginLimit:    middleware.RateLimit(c.Redis, 10, time.Minute, middleware.KeyByIPAndPath(), allowPrivate),
		RegisterLimit: middleware.RateLimit(c.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), allowPrivate),
	})
	reg.Add(&modules.CategoryModule{Handler: c.CategoryHandler, AuthMW: authMW})
	reg.Add(&modules.ProductModule{Handler: c.ProductHandler, AuthMW: authMW})
	reg.RegisterAll()

	return engine
}
