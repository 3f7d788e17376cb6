package router

import (
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/infrastructure/middleware"
)

// RegisterGroupRoutes 注册群组成员与群组关联路由（需要认证）
func (rt *Router) RegisterGroupRoutes(r *gin.Engine) {
	groupGroup := r.Group("/group/:id")
	groupGroup.Use(middleware.JWTAuth())
	{
		groupGroup.GET("/members", rt.handlers.Membership.Members)

		membership := groupGroup.Group("/membership")
		membership.POST("/request", rt.handlers.Membership.Request) // 申请加入
		membership.POST("/invite", rt.handlers.Membership.Invite)   // 邀请（管理员）
		membership.POST("/accept", rt.handlers.Membership.Accept)   // 通过申请 / 接受邀请
		membership.POST("/decline", rt.handlers.Membership.Decline) // 拒绝 / 撤回
		membership.POST("/promote", rt.handlers.Membership.Promote) // 设为管理员
		membership.POST("/demote", rt.handlers.Membership.Demote)   // 取消管理员
		membership.POST("/leave", rt.handlers.Membership.Leave)     // 退出
		membership.POST("/remove", rt.handlers.Membership.Remove)   // 移除成员（管理员）

		groupGroup.POST("/relate", rt.handlers.Group.Relate)
		groupGroup.DELETE("/relate", rt.handlers.Group.Unrelate)
		groupGroup.GET("/related", rt.handlers.Group.Related)
	}
}
