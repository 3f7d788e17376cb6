package handler

import (
	"cosinnus_server/internal/gateway/websocket"
	"cosinnus_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Stream     *StreamHandler
	Membership *MembershipHandler // 群组成员
	Portal     *MembershipHandler // 门户成员，与群组共用同一套规则
	Group      *GroupHandler
	WS         *WSHandler // hub 为空时不注册
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(members, portalMembers service.MembershipService, streams service.StreamService, groups service.GroupService, hub *websocket.Hub, pageSize int) *Handlers {
	h := &Handlers{
		Stream:     NewStreamHandler(streams, pageSize),
		Membership: NewMembershipHandler(members),
		Portal:     NewMembershipHandler(portalMembers),
		Group:      NewGroupHandler(groups, members),
	}
	if hub != nil {
		h.WS = NewWSHandler(hub)
	}
	return h
}
