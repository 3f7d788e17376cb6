package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cosinnus_server/internal/model"
)

// ==================== Repository 接口定义 ====================

// PortalRepository 门户数据访问接口
type PortalRepository interface {
	// FindByID 根据主键查找门户
	FindByID(ctx context.Context, id uint) (*model.Portal, error)
	// Create 创建门户
	Create(ctx context.Context, portal *model.Portal) error
}

// GroupRepository 群组数据访问接口
type GroupRepository interface {
	// FindByID 根据主键查找群组
	FindByID(ctx context.Context, id uint) (*model.GroupInfo, error)
	// FindByIDs 批量查找群组
	FindByIDs(ctx context.Context, ids []uint) ([]model.GroupInfo, error)
	// Create 创建群组
	Create(ctx context.Context, group *model.GroupInfo) error

	// RelateGroups 在同一事务内写入 (a,b) 与 (b,a) 两条关联
	RelateGroups(ctx context.Context, a, b uint) error
	// UnrelateGroups 删除两个方向的关联
	UnrelateGroups(ctx context.Context, a, b uint) error
	// FindRelatedGroupIDs 查找与指定群组关联的群组
	FindRelatedGroupIDs(ctx context.Context, groupID uint) ([]uint, error)
}

// MembershipRepository 成员关系数据访问接口
// 群组成员与门户成员各有一个实例，通过 Type() 区分
type MembershipRepository interface {
	// Type 返回成员关系模型类型
	Type() model.MembershipType
	// FindByUserAndGroup 查找某用户在某群组中的成员关系
	FindByUserAndGroup(ctx context.Context, userID, groupID uint) (*model.Membership, error)
	// FindByGroupIDs 一次查询多个群组的全部成员关系
	FindByGroupIDs(ctx context.Context, groupIDs []uint) ([]model.Membership, error)
	// FindByGroupsAndUsers 查找指定群组与用户交集上的成员关系，userIDs 为空表示不限用户
	FindByGroupsAndUsers(ctx context.Context, groupIDs, userIDs []uint) ([]model.Membership, error)
	// FindGroupIDsForUser 查找用户处于指定状态的群组
	FindGroupIDsForUser(ctx context.Context, userID uint, statuses []model.MembershipStatus) ([]uint, error)
	// Create 创建成员关系
	Create(ctx context.Context, m *model.Membership) error
	// UpdateStatus 更新单条成员关系的状态与状态变更时间
	UpdateStatus(ctx context.Context, m *model.Membership) error
	// UpdateStatusByIDs 批量更新状态，touchChangedAt 为 true 时一并写入 changedAt
	UpdateStatusByIDs(ctx context.Context, ids []uint, status model.MembershipStatus, touchChangedAt bool, changedAt time.Time) error
	// Delete 删除成员关系，返回删除的行数
	Delete(ctx context.Context, userID, groupID uint) (int64, error)
}

// StreamRepository 动态流定义数据访问接口
type StreamRepository interface {
	// FindByID 根据主键查找动态流
	FindByID(ctx context.Context, id uint) (*model.Stream, error)
	// FindByUser 查找用户的所有动态流，特殊流排在前面
	FindByUser(ctx context.Context, userID uint) ([]model.Stream, error)
	// FindSpecialByUser 查找用户的特殊动态流
	FindSpecialByUser(ctx context.Context, userID uint) ([]model.Stream, error)
	// Create 创建动态流
	Create(ctx context.Context, stream *model.Stream) error
	// UpdateLastSeen 更新最近查看时间
	UpdateLastSeen(ctx context.Context, id uint, seen time.Time) error
}

// ContentRepository 可进入动态流的单个内容类型
type ContentRepository interface {
	// Kind 内容类型名称
	Kind() string
	// SortColumn 动态流排序列
	SortColumn() string
	// Count 统计满足过滤条件的内容数量
	Count(ctx context.Context, f model.ContentFilter) (int64, error)
	// Fetch 按排序列倒序取 [offset, offset+limit) 区间
	Fetch(ctx context.Context, f model.ContentFilter, offset, limit int) ([]model.StreamItem, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db               *gorm.DB
	Portal           PortalRepository
	Group            GroupRepository
	GroupMembership  MembershipRepository
	PortalMembership MembershipRepository
	Stream           StreamRepository
	Contents         []ContentRepository // 按注册顺序排列的内容类型
}

// NewRepositories 创建所有 Repository 实例
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:               db,
		Portal:           NewPortalRepository(db),
		Group:            NewGroupRepository(db),
		GroupMembership:  NewMembershipRepository(db, model.GroupMembershipType),
		PortalMembership: NewMembershipRepository(db, model.PortalMembershipType),
		Stream:           NewStreamRepository(db),
		Contents:         NewContentRepositories(db),
	}
}

// Membership 按模型类型返回对应的成员关系 Repository
func (r *Repositories) Membership(t model.MembershipType) MembershipRepository {
	if t == model.PortalMembershipType {
		return r.PortalMembership
	}
	return r.GroupMembership
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
func (r *Repositories) Transaction(ctx context.Context, fn func(txRepos *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// AutoMigrate 自动迁移全部表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Portal{},
		&model.GroupInfo{},
		&model.GroupRelation{},
		&model.GroupMembership{},
		&model.PortalMembership{},
		&model.Stream{},
		&model.Event{},
		&model.FileEntry{},
		&model.Note{},
		&model.TodoEntry{},
		&model.Poll{},
		&model.ContentTag{},
		&model.ContentPerson{},
	)
}
