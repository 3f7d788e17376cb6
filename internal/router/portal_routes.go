package router

import (
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/infrastructure/middleware"
)

// RegisterPortalRoutes 注册门户成员路由（需要认证）
func (rt *Router) RegisterPortalRoutes(r *gin.Engine) {
	portalGroup := r.Group("/portal/:id")
	portalGroup.Use(middleware.JWTAuth())
	{
		portalGroup.GET("/members", rt.handlers.Portal.Members)

		membership := portalGroup.Group("/membership")
		membership.POST("/request", rt.handlers.Portal.Request)
		membership.POST("/invite", rt.handlers.Portal.Invite)
		membership.POST("/accept", rt.handlers.Portal.Accept)
		membership.POST("/decline", rt.handlers.Portal.Decline)
		membership.POST("/promote", rt.handlers.Portal.Promote)
		membership.POST("/demote", rt.handlers.Portal.Demote)
		membership.POST("/leave", rt.handlers.Portal.Leave)
		membership.POST("/remove", rt.handlers.Portal.Remove)
	}
}
