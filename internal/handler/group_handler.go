// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/dto/request"
	"cosinnus_server/internal/dto/respond"
	"cosinnus_server/internal/infrastructure/middleware"
	"cosinnus_server/internal/service"
	"cosinnus_server/pkg/errorx"
)

// GroupHandler 群组关联请求处理器
type GroupHandler struct {
	groupSvc  service.GroupService
	memberSvc service.MembershipService
}

// NewGroupHandler 创建群组处理器，关联操作需要当前群组的管理员权限
func NewGroupHandler(groupSvc service.GroupService, memberSvc service.MembershipService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc, memberSvc: memberSvc}
}

func (h *GroupHandler) adminOf(c *gin.Context) (uint, bool) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return 0, false
	}
	ok, err := h.memberSvc.IsAdmin(c.Request.Context(), uri.ID, middleware.CurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return 0, false
	}
	if !ok {
		HandleError(c, errorx.ErrForbidden)
		return 0, false
	}
	return uri.ID, true
}

// Relate 关联两个群组
// POST /group/:id/relate
// 请求体: request.RelateGroupRequest
func (h *GroupHandler) Relate(c *gin.Context) {
	groupID, ok := h.adminOf(c)
	if !ok {
		return
	}
	var req request.RelateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.groupSvc.RelateGroups(c.Request.Context(), groupID, req.GroupID); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Unrelate 解除关联
// DELETE /group/:id/relate?group_id=xxx
func (h *GroupHandler) Unrelate(c *gin.Context) {
	groupID, ok := h.adminOf(c)
	if !ok {
		return
	}
	var req request.RelateGroupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.groupSvc.UnrelateGroups(c.Request.Context(), groupID, req.GroupID); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Related 关联群组列表
// GET /group/:id/related
// 响应: []respond.GroupRespond
func (h *GroupHandler) Related(c *gin.Context) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	groups, err := h.groupSvc.RelatedGroups(c.Request.Context(), uri.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewGroupRespondList(groups))
}
