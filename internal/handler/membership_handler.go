package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"cosinnus_server/internal/dto/request"
	"cosinnus_server/internal/dto/respond"
	"cosinnus_server/internal/infrastructure/middleware"
	"cosinnus_server/internal/model"
	"cosinnus_server/internal/service"
	"cosinnus_server/pkg/errorx"
)

// MembershipHandler 群组成员请求处理器
type MembershipHandler struct {
	memberSvc service.MembershipService
}

// NewMembershipHandler 创建成员处理器
func NewMembershipHandler(memberSvc service.MembershipService) *MembershipHandler {
	return &MembershipHandler{memberSvc: memberSvc}
}

// target 解析群组编号与目标用户，未指定用户时为当前用户
func (h *MembershipHandler) target(c *gin.Context) (groupID, userID uint, ok bool) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return 0, 0, false
	}
	var req request.MembershipTargetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return 0, 0, false
		}
	}
	userID = req.UserID
	if userID == 0 {
		userID = middleware.CurrentUserID(c)
	}
	return uri.ID, userID, true
}

// requireAdmin 当前用户必须是群组管理员
func (h *MembershipHandler) requireAdmin(c *gin.Context, groupID uint) bool {
	ok, err := h.memberSvc.IsAdmin(c.Request.Context(), groupID, middleware.CurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return false
	}
	if !ok {
		HandleError(c, errorx.ErrForbidden)
		return false
	}
	return true
}

// Members 群组名册
// GET /group/:id/members
func (h *MembershipHandler) Members(c *gin.Context) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	roster, err := h.memberSvc.Roster(c.Request.Context(), uri.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, roster)
}

// Request 当前用户申请加入
// POST /group/:id/membership/request
func (h *MembershipHandler) Request(c *gin.Context) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	m, err := h.memberSvc.RequestMembership(c.Request.Context(), middleware.CurrentUserID(c), uri.ID)
	h.reply(c, m, err)
}

// Invite 管理员邀请用户
// POST /group/:id/membership/invite
func (h *MembershipHandler) Invite(c *gin.Context) {
	h.adminWrite(c, h.memberSvc.InviteUser)
}

// Accept 管理员通过申请，或被邀请人接受邀请
// POST /group/:id/membership/accept
func (h *MembershipHandler) Accept(c *gin.Context) {
	groupID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if !h.selfInvited(c, groupID, userID) && !h.requireAdmin(c, groupID) {
		return
	}
	m, err := h.memberSvc.AcceptMembership(c.Request.Context(), userID, groupID)
	h.reply(c, m, err)
}

// Decline 拒绝申请、拒绝邀请或撤回申请
// POST /group/:id/membership/decline
func (h *MembershipHandler) Decline(c *gin.Context) {
	groupID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if userID != middleware.CurrentUserID(c) && !h.requireAdmin(c, groupID) {
		return
	}
	h.replyEmpty(c, h.memberSvc.DeclineMembership(c.Request.Context(), userID, groupID))
}

// Promote 设为管理员
// POST /group/:id/membership/promote
func (h *MembershipHandler) Promote(c *gin.Context) {
	h.adminWrite(c, h.memberSvc.PromoteToAdmin)
}

// Demote 取消管理员
// POST /group/:id/membership/demote
func (h *MembershipHandler) Demote(c *gin.Context) {
	h.adminWrite(c, h.memberSvc.DemoteToMember)
}

// Leave 当前用户退出群组
// POST /group/:id/membership/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	var uri request.GroupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		HandleParamError(c, err)
		return
	}
	h.replyEmpty(c, h.memberSvc.LeaveGroup(c.Request.Context(), middleware.CurrentUserID(c), uri.ID))
}

// Remove 管理员移除成员
// POST /group/:id/membership/remove
func (h *MembershipHandler) Remove(c *gin.Context) {
	groupID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}
	h.replyEmpty(c, h.memberSvc.RemoveMember(c.Request.Context(), userID, groupID))
}

func (h *MembershipHandler) adminWrite(c *gin.Context, op func(ctx context.Context, userID, groupID uint) (*model.Membership, error)) {
	groupID, userID, ok := h.target(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}
	m, err := op(c.Request.Context(), userID, groupID)
	h.reply(c, m, err)
}

// selfInvited 当前用户是否在处理发给自己的邀请
func (h *MembershipHandler) selfInvited(c *gin.Context, groupID, userID uint) bool {
	if userID != middleware.CurrentUserID(c) {
		return false
	}
	roster, err := h.memberSvc.Roster(c.Request.Context(), groupID)
	if err != nil {
		return false
	}
	for _, id := range roster.Invited {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *MembershipHandler) reply(c *gin.Context, m *model.Membership, err error) {
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.NewMembershipRespond(m))
}

func (h *MembershipHandler) replyEmpty(c *gin.Context, err error) {
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
