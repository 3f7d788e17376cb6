package model

import "time"

// MembershipStatus 成员状态
type MembershipStatus int8

const (
	StatusPending        MembershipStatus = 0 // 申请中
	StatusMember         MembershipStatus = 1 // 普通成员
	StatusAdmin          MembershipStatus = 2 // 管理员
	StatusInvitedPending MembershipStatus = 3 // 已邀请待确认
)

// IsActive ADMIN 与 MEMBER 都算正式成员
func (s MembershipStatus) IsActive() bool {
	return s == StatusMember || s == StatusAdmin
}

// IsPending 申请中或邀请待确认
func (s MembershipStatus) IsPending() bool {
	return s == StatusPending || s == StatusInvitedPending
}

// Valid 是否为已知状态
func (s MembershipStatus) Valid() bool {
	return s >= StatusPending && s <= StatusInvitedPending
}

func (s MembershipStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusMember:
		return "member"
	case StatusAdmin:
		return "admin"
	case StatusInvitedPending:
		return "invited_pending"
	}
	return "unknown"
}

// Membership 成员关系行，群组成员表与门户成员表共用同一结构
// 读写时通过 db.Table(...) 指定具体表
type Membership struct {
	ID              uint             `gorm:"primarykey"`
	UserID          uint             `gorm:"column:user_id"`
	GroupID         uint             `gorm:"column:group_id"`
	Status          MembershipStatus `gorm:"column:status"`
	StatusChangedAt time.Time        `gorm:"column:status_changed_at"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GroupMembership 群组成员表（仅用于建表）
type GroupMembership struct {
	ID              uint             `gorm:"primarykey"`
	UserID          uint             `gorm:"column:user_id;not null;uniqueIndex:uk_group_membership_user_group;index:idx_group_membership_user"`
	GroupID         uint             `gorm:"column:group_id;not null;uniqueIndex:uk_group_membership_user_group;index:idx_group_membership_group"`
	Status          MembershipStatus `gorm:"column:status;not null;default:0;comment:0申请中 1成员 2管理员 3邀请待确认"`
	StatusChangedAt time.Time        `gorm:"column:status_changed_at;comment:转为正式成员的时间"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (GroupMembership) TableName() string {
	return "group_membership"
}

// PortalMembership 门户成员表（仅用于建表）
type PortalMembership struct {
	ID              uint             `gorm:"primarykey"`
	UserID          uint             `gorm:"column:user_id;not null;uniqueIndex:uk_portal_membership_user_group;index:idx_portal_membership_user"`
	GroupID         uint             `gorm:"column:group_id;not null;uniqueIndex:uk_portal_membership_user_group;index:idx_portal_membership_group"`
	Status          MembershipStatus `gorm:"column:status;not null;default:0;comment:0申请中 1成员 2管理员 3邀请待确认"`
	StatusChangedAt time.Time        `gorm:"column:status_changed_at;comment:转为正式成员的时间"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PortalMembership) TableName() string {
	return "portal_membership"
}

// MembershipType 成员关系模型类型，决定表名与缓存键命名空间
type MembershipType struct {
	Name  string // 缓存键中的模型名
	Table string // 表名
}

var (
	GroupMembershipType  = MembershipType{Name: "group", Table: GroupMembership{}.TableName()}
	PortalMembershipType = MembershipType{Name: "portal", Table: PortalMembership{}.TableName()}
)
