// Package router 提供 HTTP 路由注册
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/handler"
	"cosinnus_server/internal/infrastructure/middleware"
)

// Router 路由管理器
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	rt.RegisterStreamRoutes(r)
	rt.RegisterGroupRoutes(r)
	rt.RegisterPortalRoutes(r)
	if rt.handlers.WS != nil {
		r.GET("/ws", middleware.JWTAuth(), rt.handlers.WS.Connect)
	}
}
