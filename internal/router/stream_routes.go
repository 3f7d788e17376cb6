package router

import (
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/infrastructure/middleware"
)

// RegisterStreamRoutes 注册动态流路由
// /stream/public 允许匿名访问，其余需要认证
func (rt *Router) RegisterStreamRoutes(r *gin.Engine) {
	r.GET("/stream/public", middleware.OptionalJWTAuth(), rt.handlers.Stream.PublicObjects)

	streamGroup := r.Group("/stream")
	streamGroup.Use(middleware.JWTAuth())
	{
		streamGroup.GET("", rt.handlers.Stream.ListStreams)
		streamGroup.POST("/special", rt.handlers.Stream.CreateSpecialStreams)
		streamGroup.GET("/:id", rt.handlers.Stream.Objects)
		streamGroup.GET("/:id/unread", rt.handlers.Stream.Unread)
		streamGroup.POST("/:id/seen", rt.handlers.Stream.MarkSeen)
	}
}
