// Package service 定义业务层接口
// Handler 层只依赖这些接口，便于替换实现与测试
package service

import (
	"context"

	"cosinnus_server/internal/model"
	"cosinnus_server/internal/service/membership"
	"cosinnus_server/internal/service/stream"
)

// MembershipService 成员关系业务接口
type MembershipService interface {
	// Roster 群组全部分桶名册（走缓存）
	Roster(ctx context.Context, groupID uint) (*membership.Roster, error)
	// IsAdmin 用户是否为群组管理员
	IsAdmin(ctx context.Context, groupID, userID uint) (bool, error)

	RequestMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	InviteUser(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	AcceptMembership(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	DeclineMembership(ctx context.Context, userID, groupID uint) error
	PromoteToAdmin(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	DemoteToMember(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	LeaveGroup(ctx context.Context, userID, groupID uint) error
	RemoveMember(ctx context.Context, userID, groupID uint) error
}

// StreamService 动态流业务接口
type StreamService interface {
	// ListStreams 用户的全部动态流
	ListStreams(ctx context.Context, userID uint) ([]model.Stream, error)
	// CreateSpecialStreams 创建特殊动态流，已存在时直接返回
	CreateSpecialStreams(ctx context.Context, userID, portalID uint) ([]model.Stream, error)
	// Objects 聚合持久化的动态流
	Objects(ctx context.Context, id uint, viewer stream.Viewer, offset, limit int) (*stream.Result, error)
	// PublicObjects 聚合门户内的公开内容，与登录身份无关
	PublicObjects(ctx context.Context, portalIDs []uint, models []string, offset, limit int) (*stream.Result, error)
	// Unread 未读数量
	Unread(ctx context.Context, id uint, viewer stream.Viewer) (int64, error)
	// MarkSeen 标记为已读
	MarkSeen(ctx context.Context, id uint, viewer stream.Viewer) (*model.Stream, error)
}

// GroupService 群组关联业务接口
type GroupService interface {
	RelateGroups(ctx context.Context, a, b uint) error
	UnrelateGroups(ctx context.Context, a, b uint) error
	RelatedGroups(ctx context.Context, groupID uint) ([]model.GroupInfo, error)
}
